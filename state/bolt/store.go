// Package bolt persists state in a single bbolt bucket.
package bolt

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"okinoko_ledger/state"
)

var bucketName = []byte("okinoko")

type Store struct {
	db *bolt.DB
}

var _ state.Store = (*Store)(nil)

// New opens (or creates) the database file at path.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

type txn struct {
	bucket *bolt.Bucket
	err    error
}

func (t *txn) Get(key string) *string {
	v := t.bucket.Get([]byte(key))
	if v == nil {
		return nil
	}
	// string() copies, the slice is only valid inside the bolt txn
	s := string(v)
	return &s
}

func (t *txn) Set(key, value string) {
	if err := t.bucket.Put([]byte(key), []byte(value)); err != nil {
		t.fail(err)
	}
}

func (t *txn) Delete(key string) {
	if err := t.bucket.Delete([]byte(key)); err != nil {
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
	return s.db.Update(func(tx *bolt.Tx) error {
		t := &txn{bucket: tx.Bucket(bucketName)}
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
	return s.db.View(func(tx *bolt.Tx) error {
		t := &txn{bucket: tx.Bucket(bucketName)}
		if err := fn(t); err != nil {
			return err
		}
		return t.err
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
