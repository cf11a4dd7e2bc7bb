// Package memory keeps state in a map. Writes are staged per transaction and
// applied on commit.
package memory

import (
	"context"
	"sync"

	"okinoko_ledger/state"
)

type Store struct {
	mu     sync.RWMutex
	db     map[string]string
	closed bool
}

var _ state.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: make(map[string]string)}
}

type txn struct {
	base     map[string]string
	writes   map[string]*string
	readOnly bool
	err      error
}

func (t *txn) Get(key string) *string {
	if v, ok := t.writes[key]; ok {
		if v == nil {
			return nil
		}
		cp := *v
		return &cp
	}
	v, ok := t.base[key]
	if !ok {
		return nil
	}
	return &v
}

func (t *txn) Set(key, value string) {
	if t.readOnly {
		t.fail(state.ErrReadOnly)
		return
	}
	t.writes[key] = &value
}

func (t *txn) Delete(key string) {
	if t.readOnly {
		t.fail(state.ErrReadOnly)
		return
	}
	t.writes[key] = nil
}

func (t *txn) Err() error { return t.err }

func (t *txn) fail(err error) {
	if t.err == nil {
		t.err = err
	}
}

func (s *Store) Update(ctx context.Context, fn func(state.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return state.ErrClosed
	}
	t := &txn{base: s.db, writes: make(map[string]*string)}
	if err := fn(t); err != nil {
		return err
	}
	if t.err != nil {
		return t.err
	}
	for k, v := range t.writes {
		if v == nil {
			delete(s.db, k)
			continue
		}
		s.db[k] = *v
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(state.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return state.ErrClosed
	}
	t := &txn{base: s.db, writes: map[string]*string{}, readOnly: true}
	if err := fn(t); err != nil {
		return err
	}
	return t.err
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len reports how many keys are stored, handy in tests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.db)
}
