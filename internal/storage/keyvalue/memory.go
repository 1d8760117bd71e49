package keyvalue

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store. Used in standalone mode and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Read(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	val, ok := s.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), val...), nil
}

func (s *MemoryStore) Write(ctx context.Context, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	delete(s.data, string(key))
	return nil
}

func (s *MemoryStore) Batch(ctx context.Context, ops []BatchOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			s.data[string(op.Key)] = append([]byte(nil), op.Value...)
		case BatchDelete:
			delete(s.data, string(op.Key))
		}
	}
	return nil
}

func (s *MemoryStore) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	it := &memoryIterator{pos: -1}
	for _, k := range keys {
		it.keys = append(it.keys, []byte(k))
		it.values = append(it.values, append([]byte(nil), s.data[k]...))
	}
	return it, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.data = nil
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

type memoryIterator struct {
	keys   [][]byte
	values [][]byte
	pos    int
}

func (it *memoryIterator) Next() bool {
	if it.pos+1 >= len(it.keys) {
		return false
	}
	it.pos++
	return true
}

func (it *memoryIterator) Key() []byte   { return it.keys[it.pos] }
func (it *memoryIterator) Value() []byte { return it.values[it.pos] }
func (it *memoryIterator) Error() error  { return nil }
func (it *memoryIterator) Close() error  { return nil }
