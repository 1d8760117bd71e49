package service

import (
	"time"

	"github.com/openxm/marketd/internal/core/ledger"
	"github.com/openxm/marketd/internal/core/tx"
)

// EventHooks provides callbacks for ledger events. Hooks run on their
// own goroutines and must not call back into the service under a lock.
type EventHooks struct {
	// OnLedgerClosed fires when a ledger is validated.
	OnLedgerClosed func(event LedgerClosedEvent)

	// OnTransaction fires for each transaction in a validated ledger.
	OnTransaction func(event TransactionEvent)

	// OnMarketEvent fires for each marketplace event a validated
	// transaction emitted.
	OnMarketEvent func(event MarketEvent)
}

// LedgerClosedEvent describes a validated ledger.
type LedgerClosedEvent struct {
	Sequence   uint32    `json:"ledger_index"`
	Hash       [32]byte  `json:"ledger_hash"`
	ParentHash [32]byte  `json:"parent_hash"`
	CloseTime  time.Time `json:"close_time"`
	TxCount    int       `json:"txn_count"`
	TotalCoins uint64    `json:"total_coins"`
}

// TransactionEvent describes one validated transaction.
type TransactionEvent struct {
	Hash       [32]byte     `json:"hash"`
	Account    string       `json:"account"`
	TxType     string       `json:"tx_type"`
	Result     string       `json:"result"`
	LedgerSeq  uint32       `json:"ledger_index"`
	LedgerHash [32]byte     `json:"ledger_hash"`
	TxIndex    uint32       `json:"tx_index"`
	Metadata   *tx.Metadata `json:"metadata,omitempty"`
	CloseTime  time.Time    `json:"close_time"`
}

// MarketEvent is a marketplace event emitted by a validated
// transaction: SaleCreated, TokenBought, OfferAccepted, and the rest.
type MarketEvent struct {
	Name      string         `json:"name"`
	Data      map[string]any `json:"data"`
	TxHash    [32]byte       `json:"tx_hash"`
	LedgerSeq uint32         `json:"ledger_index"`
}

// EventPublisher dispatches ledger events to the installed hooks.
type EventPublisher struct {
	hooks *EventHooks
}

// NewEventPublisher creates an event publisher with no hooks.
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

// SetEventHooks installs the hooks.
func (p *EventPublisher) SetEventHooks(hooks *EventHooks) {
	p.hooks = hooks
}

// HasSubscribers reports whether any hook is installed.
func (p *EventPublisher) HasSubscribers() bool {
	return p.hooks != nil &&
		(p.hooks.OnLedgerClosed != nil || p.hooks.OnTransaction != nil || p.hooks.OnMarketEvent != nil)
}

// PublishLedgerClosed dispatches a ledger closed event.
func (p *EventPublisher) PublishLedgerClosed(event LedgerClosedEvent) {
	if p.hooks != nil && p.hooks.OnLedgerClosed != nil {
		go p.hooks.OnLedgerClosed(event)
	}
}

// PublishTransaction dispatches a transaction event.
func (p *EventPublisher) PublishTransaction(event TransactionEvent) {
	if p.hooks != nil && p.hooks.OnTransaction != nil {
		go p.hooks.OnTransaction(event)
	}
}

// PublishMarketEvent dispatches a marketplace event.
func (p *EventPublisher) PublishMarketEvent(event MarketEvent) {
	if p.hooks != nil && p.hooks.OnMarketEvent != nil {
		go p.hooks.OnMarketEvent(event)
	}
}

// publishClosedLedger emits events for a freshly validated ledger.
func (s *Service) publishClosedLedger(l *ledger.Ledger) {
	if !s.publisher.HasSubscribers() {
		return
	}

	h := l.Header()
	s.publisher.PublishLedgerClosed(LedgerClosedEvent{
		Sequence:   h.Sequence,
		Hash:       h.Hash,
		ParentHash: h.ParentHash,
		CloseTime:  h.CloseTime,
		TxCount:    len(l.Transactions()),
		TotalCoins: h.TotalCoins,
	})

	for _, rec := range l.Transactions() {
		result := ""
		if rec.Meta != nil {
			result = rec.Meta.TransactionResult.String()
		}
		s.publisher.PublishTransaction(TransactionEvent{
			Hash:       rec.Hash,
			Account:    rec.Account,
			TxType:     rec.TxType,
			Result:     result,
			LedgerSeq:  h.Sequence,
			LedgerHash: h.Hash,
			TxIndex:    rec.Index,
			Metadata:   rec.Meta,
			CloseTime:  h.CloseTime,
		})

		if rec.Meta == nil {
			continue
		}
		for _, ev := range rec.Meta.Events {
			s.publisher.PublishMarketEvent(MarketEvent{
				Name:      ev.Name,
				Data:      ev.Data,
				TxHash:    rec.Hash,
				LedgerSeq: h.Sequence,
			})
		}
	}
}
