// Package statetest holds the behaviour every state backend must share.
package statetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okinoko_ledger/state"
)

var errBoom = errors.New("boom")

// Run exercises a fresh store produced by open.
func Run(t *testing.T, open func(t *testing.T) state.Store) {
	t.Run("set get delete", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Update(ctx, func(txn state.Txn) error {
			txn.Set("a", "1")
			txn.Set("b", "2")
			return nil
		}))
		require.NoError(t, s.Update(ctx, func(txn state.Txn) error {
			txn.Delete("b")
			return nil
		}))
		require.NoError(t, s.View(ctx, func(txn state.Txn) error {
			a := txn.Get("a")
			require.NotNil(t, a)
			assert.Equal(t, "1", *a)
			assert.Nil(t, txn.Get("b"))
			assert.Nil(t, txn.Get("missing"))
			return nil
		}))
	})

	t.Run("failed body writes nothing", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		err := s.Update(ctx, func(txn state.Txn) error {
			txn.Set("x", "1")
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		require.NoError(t, s.View(ctx, func(txn state.Txn) error {
			assert.Nil(t, txn.Get("x"))
			return nil
		}))
	})

	t.Run("reads see own writes", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Update(ctx, func(txn state.Txn) error {
			txn.Set("k", "v1")
			got := txn.Get("k")
			require.NotNil(t, got)
			assert.Equal(t, "v1", *got)
			txn.Delete("k")
			assert.Nil(t, txn.Get("k"))
			return nil
		}))
	})

	t.Run("binary keys", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		key := string([]byte{0x01, 0x00, 0xff, 'a'})
		require.NoError(t, s.Update(ctx, func(txn state.Txn) error {
			state.SetIfChanged(txn, key, string([]byte{0x00, 0x10}))
			return nil
		}))
		require.NoError(t, s.View(ctx, func(txn state.Txn) error {
			got := txn.Get(key)
			require.NotNil(t, got)
			assert.Equal(t, []byte{0x00, 0x10}, []byte(*got))
			return nil
		}))
	})

	t.Run("view rejects writes", func(t *testing.T) {
		s := open(t)
		err := s.View(context.Background(), func(txn state.Txn) error {
			txn.Set("nope", "1")
			return nil
		})
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := s.Update(ctx, func(txn state.Txn) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}
