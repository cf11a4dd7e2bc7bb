// Package state defines the transactional key/value surface every ledger
// instance and the registry persist through. Keys and values are opaque strings;
// encoding lives with the callers.
package state

import (
	"context"
	"errors"
)

var (
	ErrClosed   = errors.New("state: store is closed")
	ErrReadOnly = errors.New("state: write in read-only transaction")
)

// Txn is the view handed to a transaction body. Get returns nil for missing
// keys. Backend failures are remembered and surface from Update/View, so bodies
// can stay linear like host state calls.
type Txn interface {
	Get(key string) *string
	Set(key, value string)
	Delete(key string)
	// Err returns the first backend failure seen by this transaction.
	Err() error
}

// Store runs transaction bodies. Update commits only when fn returns nil and
// the txn saw no backend failure; otherwise nothing is written.
type Store interface {
	Update(ctx context.Context, fn func(Txn) error) error
	View(ctx context.Context, fn func(Txn) error) error
	Close() error
}

// SetIfChanged avoids unnecessary writes so we dont churn the backend.
func SetIfChanged(txn Txn, key, value string) {
	if existing := txn.Get(key); existing != nil && *existing == value {
		return
	}
	txn.Set(key, value)
}
