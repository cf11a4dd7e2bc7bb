package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"okinoko_ledger/state"
	badgerstore "okinoko_ledger/state/badger"
	boltstore "okinoko_ledger/state/bolt"
	"okinoko_ledger/state/memory"
)

// OpenStore opens the configured state backend, creating the data dir when needed.
func (c *Config) OpenStore(logger *slog.Logger) (state.Store, error) {
	switch c.Backend {
	case BackendMemory:
		return memory.New(), nil
	case BackendBadger:
		store, err := badgerstore.New(
			badgerstore.WithDataDir(filepath.Join(c.DataDir, "badger")),
			badgerstore.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendBolt:
		if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		store, err := boltstore.New(filepath.Join(c.DataDir, "ledger.db"))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown backend %q", c.Backend)
}
