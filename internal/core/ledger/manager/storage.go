package manager

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/openxm/marketd/internal/core/ledger"
	"github.com/openxm/marketd/internal/core/tx/sle"
	"github.com/openxm/marketd/internal/storage/compress"
	"github.com/openxm/marketd/internal/storage/keyvalue"
)

var ErrLedgerNotFound = errors.New("ledger not found in storage")

// Key layout in the key/value store. Sequence keys sort numerically
// because the sequence is big-endian.
var (
	prefixLedgerBySeq  = []byte("l/s/")
	prefixSeqByHash    = []byte("l/h/")
	keyLatestValidated = []byte("l/latest")
)

// stateEntry is one ledger state record inside a persisted ledger.
type stateEntry struct {
	Key  [32]byte `codec:"Key"`
	Data []byte   `codec:"Data"`
}

// persistedLedger is the on-disk form of a closed ledger.
type persistedLedger struct {
	Header ledger.Header      `codec:"Header"`
	State  []stateEntry       `codec:"State"`
	Txs    []*ledger.TxRecord `codec:"Txs"`
}

// Storage persists closed ledgers as compressed CBOR records.
type Storage struct {
	store      keyvalue.Store
	compressor compress.Compressor
}

// NewStorage creates ledger storage over a key/value backend. The
// compressor name must be registered; "lz4" and "none" always are.
func NewStorage(store keyvalue.Store, compressorName string) (*Storage, error) {
	if compressorName == "" {
		compressorName = "lz4"
	}
	compressor, err := compress.Get(compressorName)
	if err != nil {
		return nil, err
	}
	return &Storage{store: store, compressor: compressor}, nil
}

// StoreLedger persists a closed ledger and advances the latest marker.
func (s *Storage) StoreLedger(ctx context.Context, l *ledger.Ledger) error {
	if !l.IsClosed() {
		return errors.New("cannot store an open ledger")
	}

	rec := persistedLedger{Header: l.Header(), Txs: l.Transactions()}
	if err := l.ForEach(func(key [32]byte, data []byte) bool {
		rec.State = append(rec.State, stateEntry{Key: key, Data: data})
		return true
	}); err != nil {
		return err
	}

	encoded, err := sle.Encode(&rec)
	if err != nil {
		return fmt.Errorf("failed to encode ledger %d: %w", l.Sequence(), err)
	}
	compressed, err := s.compressor.Compress(encoded)
	if err != nil {
		return fmt.Errorf("failed to compress ledger %d: %w", l.Sequence(), err)
	}

	hash := l.Hash()
	ops := []keyvalue.BatchOperation{
		{Type: keyvalue.BatchPut, Key: seqKey(l.Sequence()), Value: compressed},
		{Type: keyvalue.BatchPut, Key: hashKey(hash), Value: seqValue(l.Sequence())},
		{Type: keyvalue.BatchPut, Key: keyLatestValidated, Value: seqValue(l.Sequence())},
	}
	return s.store.Batch(ctx, ops)
}

// GetLedger loads a ledger by sequence.
func (s *Storage) GetLedger(ctx context.Context, seq uint32) (*ledger.Ledger, error) {
	compressed, err := s.store.Read(ctx, seqKey(seq))
	if err != nil {
		if errors.Is(err, keyvalue.ErrKeyNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, err
	}
	return s.decodeLedger(compressed)
}

// GetLedgerByHash loads a ledger by hash.
func (s *Storage) GetLedgerByHash(ctx context.Context, hash [32]byte) (*ledger.Ledger, error) {
	seqData, err := s.store.Read(ctx, hashKey(hash))
	if err != nil {
		if errors.Is(err, keyvalue.ErrKeyNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, err
	}
	return s.GetLedger(ctx, binary.BigEndian.Uint32(seqData))
}

// LatestSequence returns the highest stored ledger sequence.
func (s *Storage) LatestSequence(ctx context.Context) (uint32, error) {
	data, err := s.store.Read(ctx, keyLatestValidated)
	if err != nil {
		if errors.Is(err, keyvalue.ErrKeyNotFound) {
			return 0, ErrLedgerNotFound
		}
		return 0, err
	}
	return binary.BigEndian.Uint32(data), nil
}

func (s *Storage) decodeLedger(compressed []byte) (*ledger.Ledger, error) {
	encoded, err := s.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress ledger record: %w", err)
	}

	var rec persistedLedger
	if err := sle.Decode(encoded, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode ledger record: %w", err)
	}

	state := make(map[[32]byte][]byte, len(rec.State))
	for _, e := range rec.State {
		state[e.Key] = e.Data
	}
	return ledger.Restore(rec.Header, state, rec.Txs), nil
}

func seqKey(seq uint32) []byte {
	key := make([]byte, len(prefixLedgerBySeq)+4)
	copy(key, prefixLedgerBySeq)
	binary.BigEndian.PutUint32(key[len(prefixLedgerBySeq):], seq)
	return key
}

func hashKey(hash [32]byte) []byte {
	return append(append([]byte(nil), prefixSeqByHash...), hash[:]...)
}

func seqValue(seq uint32) []byte {
	var v [4]byte
	binary.BigEndian.PutUint32(v[:], seq)
	return v[:]
}
