package badger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okinoko_ledger/state"
	"okinoko_ledger/state/badger"
	"okinoko_ledger/state/statetest"
)

func TestBadgerStoreInMemory(t *testing.T) {
	statetest.Run(t, func(t *testing.T) state.Store {
		s, err := badger.New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBadgerStoreReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s, err := badger.New(badger.WithDataDir(dir))
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(txn state.Txn) error {
		txn.Set("persisted", "yes")
		return nil
	}))
	require.NoError(t, s.Close())

	s, err = badger.New(badger.WithDataDir(dir))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.View(ctx, func(txn state.Txn) error {
		got := txn.Get("persisted")
		require.NotNil(t, got)
		assert.Equal(t, "yes", *got)
		return nil
	}))
}
