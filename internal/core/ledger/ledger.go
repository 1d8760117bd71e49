// Package ledger implements the in-memory ledger: a keyed state map
// with a header chaining each closed ledger to its parent.
package ledger

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sort"
	"time"

	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/tx"
	"github.com/openxm/marketd/internal/crypto"
)

var (
	ErrEntryExists   = errors.New("ledger entry already exists")
	ErrEntryNotFound = errors.New("ledger entry not found")
	ErrLedgerClosed  = errors.New("ledger is closed")
)

// Header carries the identifying fields of a ledger. Hash covers every
// other field, and ParentHash chains closed ledgers together.
type Header struct {
	Sequence   uint32    `codec:"Sequence" json:"Sequence"`
	Hash       [32]byte  `codec:"Hash" json:"Hash"`
	ParentHash [32]byte  `codec:"ParentHash" json:"ParentHash"`
	StateHash  [32]byte  `codec:"StateHash" json:"StateHash"`
	TxHash     [32]byte  `codec:"TxHash" json:"TxHash"`
	CloseTime  time.Time `codec:"CloseTime" json:"CloseTime"`
	TotalCoins uint64    `codec:"TotalCoins" json:"TotalCoins"`
	Closed     bool      `codec:"Closed" json:"Closed"`
	Validated  bool      `codec:"Validated" json:"Validated"`
}

// TxRecord is a transaction applied to a ledger, with its metadata.
type TxRecord struct {
	Hash    [32]byte     `codec:"Hash" json:"Hash"`
	Account string       `codec:"Account" json:"Account"`
	TxType  string       `codec:"TxType" json:"TxType"`
	Blob    []byte       `codec:"Blob" json:"Blob"`
	Meta    *tx.Metadata `codec:"Meta" json:"Meta"`
	Index   uint32       `codec:"Index" json:"Index"`
}

// Ledger is a version of the marketplace state. An open ledger accepts
// transactions; closing it freezes the state and computes the hashes.
type Ledger struct {
	header Header
	state  map[[32]byte][]byte
	txs    []*TxRecord
}

// New creates an empty open ledger with the given sequence.
func New(sequence uint32) *Ledger {
	return &Ledger{
		header: Header{Sequence: sequence},
		state:  make(map[[32]byte][]byte),
	}
}

// NewOpen creates the next open ledger on top of a closed parent, with a
// copy of the parent's state.
func NewOpen(parent *Ledger) (*Ledger, error) {
	if !parent.header.Closed {
		return nil, errors.New("parent ledger is not closed")
	}
	state := make(map[[32]byte][]byte, len(parent.state))
	for k, v := range parent.state {
		state[k] = v
	}
	return &Ledger{
		header: Header{
			Sequence:   parent.header.Sequence + 1,
			ParentHash: parent.header.Hash,
			TotalCoins: parent.header.TotalCoins,
		},
		state: state,
	}, nil
}

// Sequence returns the ledger sequence.
func (l *Ledger) Sequence() uint32 {
	return l.header.Sequence
}

// Hash returns the ledger hash. Zero until the ledger closes.
func (l *Ledger) Hash() [32]byte {
	return l.header.Hash
}

// Header returns a copy of the ledger header.
func (l *Ledger) Header() Header {
	return l.header
}

// IsClosed reports whether the ledger has closed.
func (l *Ledger) IsClosed() bool {
	return l.header.Closed
}

// IsValidated reports whether the ledger is validated.
func (l *Ledger) IsValidated() bool {
	return l.header.Validated
}

// TotalCoins returns the native coins in existence as of this ledger.
func (l *Ledger) TotalCoins() uint64 {
	return l.header.TotalCoins
}

// CloseTime returns the ledger close time. Zero until the ledger closes.
func (l *Ledger) CloseTime() time.Time {
	return l.header.CloseTime
}

// SetTotalCoins sets the initial coin supply. Used by genesis only.
func (l *Ledger) SetTotalCoins(total uint64) {
	l.header.TotalCoins = total
}

// Transactions returns the transactions applied to this ledger in order.
func (l *Ledger) Transactions() []*TxRecord {
	return l.txs
}

// AddTransaction records an applied transaction.
func (l *Ledger) AddTransaction(rec *TxRecord) error {
	if l.header.Closed {
		return ErrLedgerClosed
	}
	rec.Index = uint32(len(l.txs))
	l.txs = append(l.txs, rec)
	return nil
}

// FindTransaction returns the record for a transaction hash, if present.
func (l *Ledger) FindTransaction(hash [32]byte) (*TxRecord, bool) {
	for _, rec := range l.txs {
		if rec.Hash == hash {
			return rec, true
		}
	}
	return nil, false
}

// Read implements tx.LedgerView.
func (l *Ledger) Read(k keylet.Keylet) ([]byte, error) {
	data, ok := l.state[k.Key]
	if !ok {
		return nil, nil
	}
	return data, nil
}

// Exists implements tx.LedgerView.
func (l *Ledger) Exists(k keylet.Keylet) (bool, error) {
	_, ok := l.state[k.Key]
	return ok, nil
}

// Insert implements tx.LedgerView.
func (l *Ledger) Insert(k keylet.Keylet, data []byte) error {
	if l.header.Closed {
		return ErrLedgerClosed
	}
	if _, ok := l.state[k.Key]; ok {
		return ErrEntryExists
	}
	l.state[k.Key] = data
	return nil
}

// Update implements tx.LedgerView.
func (l *Ledger) Update(k keylet.Keylet, data []byte) error {
	if l.header.Closed {
		return ErrLedgerClosed
	}
	if _, ok := l.state[k.Key]; !ok {
		return ErrEntryNotFound
	}
	l.state[k.Key] = data
	return nil
}

// Erase implements tx.LedgerView.
func (l *Ledger) Erase(k keylet.Keylet) error {
	if l.header.Closed {
		return ErrLedgerClosed
	}
	if _, ok := l.state[k.Key]; !ok {
		return ErrEntryNotFound
	}
	delete(l.state, k.Key)
	return nil
}

// AdjustCoinsDestroyed implements tx.LedgerView. Destroyed coins reduce
// the total supply.
func (l *Ledger) AdjustCoinsDestroyed(amount uint64) {
	l.header.TotalCoins -= amount
}

// ForEach implements tx.LedgerView. Iteration order is by key.
func (l *Ledger) ForEach(fn func(key [32]byte, data []byte) bool) error {
	for _, key := range l.sortedKeys() {
		if !fn(key, l.state[key]) {
			return nil
		}
	}
	return nil
}

// StateSize returns the number of state entries.
func (l *Ledger) StateSize() int {
	return len(l.state)
}

// Close freezes the ledger, computing the state hash, transaction hash,
// and the ledger hash chained over the parent.
func (l *Ledger) Close(closeTime time.Time) error {
	if l.header.Closed {
		return ErrLedgerClosed
	}
	l.header.CloseTime = closeTime
	l.header.StateHash = l.computeStateHash()
	l.header.TxHash = l.computeTxHash()
	l.header.Closed = true
	l.header.Hash = l.computeHash()
	return nil
}

// SetValidated marks a closed ledger validated. Validation is never
// undone.
func (l *Ledger) SetValidated() error {
	if !l.header.Closed {
		return errors.New("cannot validate an open ledger")
	}
	l.header.Validated = true
	return nil
}

func (l *Ledger) sortedKeys() [][32]byte {
	keys := make([][32]byte, 0, len(l.state))
	for k := range l.state {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

// computeStateHash hashes every entry in key order.
func (l *Ledger) computeStateHash() [32]byte {
	var buf bytes.Buffer
	for _, key := range l.sortedKeys() {
		buf.Write(key[:])
		buf.Write(l.state[key])
	}
	return crypto.Sha512Half([]byte("MLN\x00"), buf.Bytes())
}

// computeTxHash hashes the applied transaction hashes in order.
func (l *Ledger) computeTxHash() [32]byte {
	var buf bytes.Buffer
	for _, rec := range l.txs {
		buf.Write(rec.Hash[:])
	}
	return crypto.Sha512Half([]byte("TXS\x00"), buf.Bytes())
}

// computeHash hashes the header fields.
func (l *Ledger) computeHash() [32]byte {
	var seq [4]byte
	binary.BigEndian.PutUint32(seq[:], l.header.Sequence)
	var coins [8]byte
	binary.BigEndian.PutUint64(coins[:], l.header.TotalCoins)
	var closeTime [8]byte
	binary.BigEndian.PutUint64(closeTime[:], uint64(l.header.CloseTime.Unix()))

	return crypto.Sha512Half(
		[]byte("LGR\x00"),
		seq[:],
		l.header.ParentHash[:],
		l.header.StateHash[:],
		l.header.TxHash[:],
		coins[:],
		closeTime[:],
	)
}

// Restore rebuilds a ledger from a persisted header, state, and
// transactions. The ledger is returned in its closed form.
func Restore(header Header, state map[[32]byte][]byte, txs []*TxRecord) *Ledger {
	return &Ledger{
		header: header,
		state:  state,
		txs:    txs,
	}
}

// State returns the raw state map. Intended for persistence; callers
// must not mutate the returned map.
func (l *Ledger) State() map[[32]byte][]byte {
	return l.state
}
