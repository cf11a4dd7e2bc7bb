package bolt_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"okinoko_ledger/state"
	"okinoko_ledger/state/bolt"
	"okinoko_ledger/state/statetest"
)

func TestBoltStore(t *testing.T) {
	statetest.Run(t, func(t *testing.T) state.Store {
		s, err := bolt.New(filepath.Join(t.TempDir(), "state.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
