// Package service manages the ledger lifecycle: the open ledger
// accepting transactions, closing and validating ledgers, persistence,
// and read queries against any ledger version.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/openxm/marketd/internal/core/ledger"
	"github.com/openxm/marketd/internal/core/ledger/genesis"
	"github.com/openxm/marketd/internal/core/ledger/manager"
	"github.com/openxm/marketd/internal/core/tx"
	"github.com/openxm/marketd/internal/storage/relationaldb"
)

var (
	ErrNotStandalone  = errors.New("operation only valid in standalone mode")
	ErrNoOpenLedger   = errors.New("no open ledger")
	ErrLedgerNotFound = errors.New("ledger not found")
	ErrTxNotFound     = errors.New("transaction not found")
)

// Config holds configuration for the ledger service.
type Config struct {
	// Standalone advances ledgers manually via AcceptLedger.
	Standalone bool

	// BaseFee is the minimum transaction fee.
	BaseFee uint64

	// Genesis describes the first ledger.
	Genesis genesis.Config

	// Manager persists closed ledgers. Nil keeps everything in memory.
	Manager *manager.Manager

	// History indexes validated transactions and trades. Optional.
	History relationaldb.Database
}

// DefaultConfig returns a standalone in-memory configuration.
func DefaultConfig() Config {
	return Config{
		Standalone: true,
		BaseFee:    10,
	}
}

// Service owns the ledger chain. All access is serialized through its
// lock; transaction submission and ledger close never interleave.
type Service struct {
	mu sync.RWMutex

	config Config

	manager *manager.Manager
	history relationaldb.Database

	openLedger      *ledger.Ledger
	closedLedger    *ledger.Ledger
	validatedLedger *ledger.Ledger
	genesisLedger   *ledger.Ledger

	// Closed ledgers by sequence.
	ledgerHistory map[uint32]*ledger.Ledger

	// Transaction hash to the ledger sequence holding it.
	txIndex map[[32]byte]uint32

	publisher *EventPublisher
}

// New creates a ledger service.
func New(cfg Config) (*Service, error) {
	if cfg.BaseFee == 0 {
		cfg.BaseFee = 10
	}
	return &Service{
		config:        cfg,
		manager:       cfg.Manager,
		history:       cfg.History,
		ledgerHistory: make(map[uint32]*ledger.Ledger),
		txIndex:       make(map[[32]byte]uint32),
		publisher:     NewEventPublisher(),
	}, nil
}

// Start creates the genesis ledger and opens ledger 2.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	genesisLedger, err := genesis.Create(s.config.Genesis)
	if err != nil {
		return fmt.Errorf("failed to create genesis ledger: %w", err)
	}

	s.genesisLedger = genesisLedger
	s.closedLedger = genesisLedger
	s.validatedLedger = genesisLedger
	s.ledgerHistory[genesisLedger.Sequence()] = genesisLedger

	if err := s.persistLedger(ctx, genesisLedger); err != nil {
		return fmt.Errorf("failed to persist genesis ledger: %w", err)
	}

	open, err := ledger.NewOpen(genesisLedger)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	s.openLedger = open
	return nil
}

// SetEventHooks installs callbacks for ledger close and transaction
// events.
func (s *Service) SetEventHooks(hooks *EventHooks) {
	s.publisher.SetEventHooks(hooks)
}

// IsStandalone reports whether the service runs in standalone mode.
func (s *Service) IsStandalone() bool {
	return s.config.Standalone
}

// BaseFee returns the minimum transaction fee.
func (s *Service) BaseFee() uint64 {
	return s.config.BaseFee
}

// GetOpenLedger returns the current open ledger.
func (s *Service) GetOpenLedger() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openLedger
}

// GetClosedLedger returns the last closed ledger.
func (s *Service) GetClosedLedger() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closedLedger
}

// GetValidatedLedger returns the highest validated ledger.
func (s *Service) GetValidatedLedger() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validatedLedger
}

// GetLedgerBySequence returns a closed ledger by sequence.
func (s *Service) GetLedgerBySequence(ctx context.Context, seq uint32) (*ledger.Ledger, error) {
	s.mu.RLock()
	l, ok := s.ledgerHistory[seq]
	s.mu.RUnlock()
	if ok {
		return l, nil
	}
	if s.manager != nil {
		l, err := s.manager.GetLedger(ctx, seq)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, manager.ErrLedgerNotFound) {
			return nil, err
		}
	}
	return nil, ErrLedgerNotFound
}

// GetLedgerByHash returns a closed ledger by hash.
func (s *Service) GetLedgerByHash(ctx context.Context, hash [32]byte) (*ledger.Ledger, error) {
	s.mu.RLock()
	for _, l := range s.ledgerHistory {
		if l.Hash() == hash {
			s.mu.RUnlock()
			return l, nil
		}
	}
	s.mu.RUnlock()
	if s.manager != nil {
		l, err := s.manager.GetLedgerByHash(ctx, hash)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, manager.ErrLedgerNotFound) {
			return nil, err
		}
	}
	return nil, ErrLedgerNotFound
}

// GetCurrentLedgerIndex returns the open ledger sequence.
func (s *Service) GetCurrentLedgerIndex() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.openLedger == nil {
		return 0
	}
	return s.openLedger.Sequence()
}

// GetValidatedLedgerIndex returns the highest validated sequence.
func (s *Service) GetValidatedLedgerIndex() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.validatedLedger == nil {
		return 0
	}
	return s.validatedLedger.Sequence()
}

// SubmitResult is the outcome of submitting a transaction to the open
// ledger.
type SubmitResult struct {
	Result   tx.Result
	Applied  bool
	Fee      uint64
	Hash     [32]byte
	Metadata *tx.Metadata
	Message  string

	// CurrentLedger is the open ledger sequence at submission.
	CurrentLedger uint32

	// ValidatedLedger is the highest validated sequence.
	ValidatedLedger uint32
}

// SubmitTransaction applies a transaction to the open ledger. Applied
// transactions (success and fee-claiming failures alike) are recorded
// in the ledger and indexed by hash.
func (s *Service) SubmitTransaction(transaction tx.Transaction) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openLedger == nil {
		return nil, ErrNoOpenLedger
	}

	engine := tx.NewEngine(s.openLedger, tx.EngineConfig{
		BaseFee:                   s.config.BaseFee,
		MaxFee:                    tx.DefaultMaxFee,
		LedgerSequence:            s.openLedger.Sequence(),
		SkipSignatureVerification: s.config.Standalone,
		Standalone:                s.config.Standalone,
	})

	applyResult := engine.Apply(transaction)

	result := &SubmitResult{
		Result:        applyResult.Result,
		Applied:       applyResult.Applied,
		Fee:           applyResult.Fee,
		Metadata:      applyResult.Metadata,
		Message:       applyResult.Message,
		CurrentLedger: s.openLedger.Sequence(),
	}
	if s.validatedLedger != nil {
		result.ValidatedLedger = s.validatedLedger.Sequence()
	}

	if !applyResult.Applied {
		return result, nil
	}

	hash, err := tx.Hash(transaction)
	if err != nil {
		return nil, fmt.Errorf("failed to hash transaction: %w", err)
	}
	blob, err := tx.ToJSON(transaction)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	result.Hash = hash

	rec := &ledger.TxRecord{
		Hash:    hash,
		Account: transaction.GetCommon().Account,
		TxType:  transaction.TxType().String(),
		Blob:    blob,
		Meta:    applyResult.Metadata,
	}
	if err := s.openLedger.AddTransaction(rec); err != nil {
		return nil, err
	}
	s.txIndex[hash] = s.openLedger.Sequence()

	return result, nil
}

// AcceptLedger closes the open ledger, validates it, persists it, and
// opens the next one. Standalone mode only.
func (s *Service) AcceptLedger(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Standalone {
		return 0, ErrNotStandalone
	}
	if s.openLedger == nil {
		return 0, ErrNoOpenLedger
	}

	closing := s.openLedger
	if err := closing.Close(time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("failed to close ledger: %w", err)
	}
	if err := closing.SetValidated(); err != nil {
		return 0, fmt.Errorf("failed to validate ledger: %w", err)
	}

	if err := s.persistLedger(ctx, closing); err != nil {
		return 0, fmt.Errorf("failed to persist ledger %d: %w", closing.Sequence(), err)
	}

	closedSeq := closing.Sequence()
	s.closedLedger = closing
	s.validatedLedger = closing
	s.ledgerHistory[closedSeq] = closing

	open, err := ledger.NewOpen(closing)
	if err != nil {
		return 0, fmt.Errorf("failed to open next ledger: %w", err)
	}
	s.openLedger = open

	s.publishClosedLedger(closing)
	return closedSeq, nil
}

// getLedgerForQuery resolves a ledger_index selector: "current",
// "closed", "validated", or a sequence number.
func (s *Service) getLedgerForQuery(ledgerIndex string) (*ledger.Ledger, bool, error) {
	var target *ledger.Ledger
	var validated bool

	switch ledgerIndex {
	case "current", "":
		target = s.openLedger
	case "closed":
		target = s.closedLedger
		validated = s.closedLedger == s.validatedLedger
	case "validated":
		target = s.validatedLedger
		validated = true
	default:
		seq, err := strconv.ParseUint(ledgerIndex, 10, 32)
		if err != nil {
			return nil, false, errors.New("invalid ledger_index")
		}
		var ok bool
		target, ok = s.ledgerHistory[uint32(seq)]
		if !ok {
			return nil, false, ErrLedgerNotFound
		}
		validated = target.IsValidated()
	}

	if target == nil {
		return nil, false, ErrNoOpenLedger
	}
	return target, validated, nil
}

// ServerInfo describes the server's ledger state.
type ServerInfo struct {
	Standalone          bool     `json:"standalone"`
	BaseFee             uint64   `json:"base_fee"`
	OpenLedgerSeq       uint32   `json:"open_ledger_seq"`
	ClosedLedgerSeq     uint32   `json:"closed_ledger_seq"`
	ClosedLedgerHash    [32]byte `json:"closed_ledger_hash"`
	ValidatedLedgerSeq  uint32   `json:"validated_ledger_seq"`
	ValidatedLedgerHash [32]byte `json:"validated_ledger_hash"`
	CompleteLedgers     string   `json:"complete_ledgers"`
	TotalCoins          uint64   `json:"total_coins"`
}

// GetServerInfo returns basic server status.
func (s *Service) GetServerInfo() ServerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := ServerInfo{
		Standalone: s.config.Standalone,
		BaseFee:    s.config.BaseFee,
	}

	if s.openLedger != nil {
		info.OpenLedgerSeq = s.openLedger.Sequence()
	}
	if s.closedLedger != nil {
		info.ClosedLedgerSeq = s.closedLedger.Sequence()
		info.ClosedLedgerHash = s.closedLedger.Hash()
		info.TotalCoins = s.closedLedger.TotalCoins()
	}
	if s.validatedLedger != nil {
		info.ValidatedLedgerSeq = s.validatedLedger.Sequence()
		info.ValidatedLedgerHash = s.validatedLedger.Hash()
	}

	if len(s.ledgerHistory) > 0 {
		minSeq := uint32(0xFFFFFFFF)
		maxSeq := uint32(0)
		for seq := range s.ledgerHistory {
			if seq < minSeq {
				minSeq = seq
			}
			if seq > maxSeq {
				maxSeq = seq
			}
		}
		if minSeq == maxSeq {
			info.CompleteLedgers = strconv.FormatUint(uint64(minSeq), 10)
		} else {
			info.CompleteLedgers = fmt.Sprintf("%d-%d", minSeq, maxSeq)
		}
	}

	return info
}

// LedgerInfo describes one ledger for query responses.
type LedgerInfo struct {
	Sequence   uint32    `json:"sequence"`
	Hash       [32]byte  `json:"hash"`
	ParentHash [32]byte  `json:"parent_hash"`
	StateHash  [32]byte  `json:"state_hash"`
	TxHash     [32]byte  `json:"tx_hash"`
	CloseTime  time.Time `json:"close_time"`
	TotalCoins uint64    `json:"total_coins"`
	TxCount    int       `json:"tx_count"`
	Closed     bool      `json:"closed"`
	Validated  bool      `json:"validated"`
}

// GetLedgerInfo returns the header of the selected ledger.
func (s *Service) GetLedgerInfo(ledgerIndex string) (*LedgerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, _, err := s.getLedgerForQuery(ledgerIndex)
	if err != nil {
		return nil, err
	}

	h := l.Header()
	return &LedgerInfo{
		Sequence:   h.Sequence,
		Hash:       h.Hash,
		ParentHash: h.ParentHash,
		StateHash:  h.StateHash,
		TxHash:     h.TxHash,
		CloseTime:  h.CloseTime,
		TotalCoins: h.TotalCoins,
		TxCount:    len(l.Transactions()),
		Closed:     h.Closed,
		Validated:  h.Validated,
	}, nil
}
