package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okinoko_ledger/state"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "okinoko.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigFileOverlaysDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
backend: badger
dataDir: /var/lib/okinoko
port: 9000
natsUrl: nats://127.0.0.1:4222
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	want := DefaultConfig()
	want.Backend = BackendBadger
	want.DataDir = "/var/lib/okinoko"
	want.Port = 9000
	want.NatsUrl = "nats://127.0.0.1:4222"
	assert.Equal(t, want, cfg)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr())
}

func TestLoadConfigEnvironmentWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, "backend: bolt\nport: 9000\n")
	t.Setenv("OKINOKO_PORT", "9100")
	t.Setenv("OKINOKO_NATS_SUBJECT", "ledger.test")
	t.Setenv("OKINOKO_DEBUG", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBolt, cfg.Backend)
	assert.Equal(t, uint(9100), cfg.Port)
	assert.Equal(t, "ledger.test", cfg.NatsSubject)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := LoadConfig(writeConfig(t, "backend: postgres\n"))
	assert.ErrorContains(t, err, "unknown backend")

	_, err = LoadConfig(writeConfig(t, "backend: bolt\ndataDir: \"\"\n"))
	assert.ErrorContains(t, err, "needs a data dir")

	_, err = LoadConfig(writeConfig(t, "port: [1]\n"))
	assert.ErrorContains(t, err, "error parsing config file")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "error reading config file")
}

func TestOpenStorePerBackend(t *testing.T) {
	for _, backend := range []string{BackendMemory, BackendBadger, BackendBolt} {
		t.Run(backend, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Backend = backend
			cfg.DataDir = filepath.Join(t.TempDir(), "data")
			store, err := cfg.OpenStore(nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })

			require.NoError(t, store.Update(context.Background(), func(txn state.Txn) error {
				txn.Set("k", "v")
				return nil
			}))
			require.NoError(t, store.View(context.Background(), func(txn state.Txn) error {
				got := txn.Get("k")
				require.NotNil(t, got)
				assert.Equal(t, "v", *got)
				return nil
			}))
		})
	}
}
