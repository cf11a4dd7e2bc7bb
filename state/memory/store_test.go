package memory_test

import (
	"testing"

	"okinoko_ledger/state"
	"okinoko_ledger/state/memory"
	"okinoko_ledger/state/statetest"
)

func TestMemoryStore(t *testing.T) {
	statetest.Run(t, func(t *testing.T) state.Store {
		return memory.New()
	})
}
