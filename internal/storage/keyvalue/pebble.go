package keyvalue

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleStore is a Store backed by a pebble database on disk.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebble opens or creates a pebble store at path.
func OpenPebble(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store at %s: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Read(ctx context.Context, key []byte) ([]byte, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	val, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	return valCopy, nil
}

func (s *PebbleStore) Write(ctx context.Context, key, value []byte) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Set(key, value, pebble.Sync)
}

func (s *PebbleStore) Delete(ctx context.Context, key []byte) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Delete(key, pebble.Sync)
}

func (s *PebbleStore) Batch(ctx context.Context, ops []BatchOperation) error {
	if s.db == nil {
		return ErrClosed
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			if err := batch.Set(op.Key, op.Value, nil); err != nil {
				return err
			}
		case BatchDelete:
			if err := batch.Delete(op.Key, nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}

	return batch.Commit(pebble.Sync)
}

func (s *PebbleStore) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	if s.db == nil {
		return nil, ErrClosed
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, err
	}

	return &pebbleIterator{iter: iter, start: start, end: end}, nil
}

func (s *PebbleStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type pebbleIterator struct {
	iter       *pebble.Iterator
	start, end []byte
	started    bool
	current    struct {
		key, value []byte
	}
}

func (it *pebbleIterator) Next() bool {
	if !it.started {
		it.started = true
		if it.start == nil {
			it.iter.First()
		} else {
			it.iter.SeekGE(it.start)
		}
	} else {
		it.iter.Next()
	}

	if !it.iter.Valid() {
		return false
	}

	key := it.iter.Key()
	if it.end != nil && bytes.Compare(key, it.end) >= 0 {
		return false
	}

	it.current.key = append([]byte(nil), key...)
	it.current.value = append([]byte(nil), it.iter.Value()...)
	return true
}

func (it *pebbleIterator) Key() []byte {
	return it.current.key
}

func (it *pebbleIterator) Value() []byte {
	return it.current.value
}

func (it *pebbleIterator) Error() error {
	return it.iter.Error()
}

func (it *pebbleIterator) Close() error {
	return it.iter.Close()
}
