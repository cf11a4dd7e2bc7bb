// Package badger persists state in badger. An empty data dir keeps everything
// in memory, which is what the tests use.
package badger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	badger "github.com/dgraph-io/badger/v4"

	"okinoko_ledger/state"
)

type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ state.Store = (*Store)(nil)

type StoreOptionFunc func(*storeOptions)

type storeOptions struct {
	dataDir string
	logger  *slog.Logger
}

// WithDataDir sets the on-disk location. Empty means in-memory.
func WithDataDir(dir string) StoreOptionFunc {
	return func(o *storeOptions) { o.dataDir = dir }
}

func WithLogger(logger *slog.Logger) StoreOptionFunc {
	return func(o *storeOptions) { o.logger = logger }
}

func New(opts ...StoreOptionFunc) (*Store, error) {
	o := storeOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	var badgerOpts badger.Options
	if o.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if _, err := os.Stat(o.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(o.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(o.dataDir)
	}
	// The default INFO logging is a bit verbose
	badgerOpts = badgerOpts.
		WithLogger(&badgerLogger{logger: o.logger}).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, logger: o.logger}, nil
}

type txn struct {
	tx  *badger.Txn
	err error
}

func (t *txn) Get(key string) *string {
	item, err := t.tx.Get([]byte(key))
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			t.fail(err)
		}
		return nil
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		t.fail(err)
		return nil
	}
	s := string(val)
	return &s
}

func (t *txn) Set(key, value string) {
	if err := t.tx.Set([]byte(key), []byte(value)); err != nil {
		t.fail(err)
	}
}

func (t *txn) Delete(key string) {
	if err := t.tx.Delete([]byte(key)); err != nil {
		t.fail(err)
	}
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
	return s.db.Update(func(tx *badger.Txn) error {
		t := &txn{tx: tx}
		if err := fn(t); err != nil {
			return err
		}
		return t.err
	})
}

func (s *Store) View(ctx context.Context, fn func(state.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *badger.Txn) error {
		t := &txn{tx: tx}
		if err := fn(t); err != nil {
			return err
		}
		return t.err
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's printf logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (b *badgerLogger) Errorf(msg string, args ...any) {
	b.logger.Error(fmt.Sprintf(msg, args...), "component", "badger")
}

func (b *badgerLogger) Warningf(msg string, args ...any) {
	b.logger.Warn(fmt.Sprintf(msg, args...), "component", "badger")
}

func (b *badgerLogger) Infof(msg string, args ...any) {
	b.logger.Info(fmt.Sprintf(msg, args...), "component", "badger")
}

func (b *badgerLogger) Debugf(msg string, args ...any) {
	b.logger.Debug(fmt.Sprintf(msg, args...), "component", "badger")
}
