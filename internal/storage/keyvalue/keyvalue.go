// Package keyvalue defines the key/value store the ledger persistence
// layer writes through, with pebble and in-memory backends.
package keyvalue

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrKeyNotFound is returned when a key does not exist.
	ErrKeyNotFound = errors.New("key not found")
)

// Store is the interface every key/value backend implements.
type Store interface {
	// Read returns the value for a key, or ErrKeyNotFound.
	Read(ctx context.Context, key []byte) ([]byte, error)

	// Write stores a value under a key, replacing any previous value.
	Write(ctx context.Context, key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key []byte) error

	// Batch applies a set of operations atomically.
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator traverses keys in [start, end). A nil bound is unbounded.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)

	// Close releases the backend.
	Close() error
}

// Iterator traverses store entries in key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOpType selects the kind of a batch operation.
type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// BatchOperation is a single write or delete inside a batch.
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}
