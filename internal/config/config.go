// Package config loads okinoko-ledger settings: built-in defaults, then an
// optional YAML file, then OKINOKO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendBolt   = "bolt"
)

type Config struct {
	Backend     string `yaml:"backend"`
	DataDir     string `yaml:"dataDir"     split_words:"true"`
	BindAddr    string `yaml:"bindAddr"    split_words:"true"`
	Port        uint   `yaml:"port"`
	Metrics     bool   `yaml:"metrics"`
	NatsUrl     string `yaml:"natsUrl"     split_words:"true"`
	NatsSubject string `yaml:"natsSubject" split_words:"true"`
	Debug       bool   `yaml:"debug"`
}

// DefaultConfig is an in-memory ledger serving the read API on localhost.
func DefaultConfig() *Config {
	return &Config{
		Backend:     BackendMemory,
		DataDir:     ".okinoko",
		BindAddr:    "127.0.0.1",
		Port:        8787,
		Metrics:     true,
		NatsSubject: "okinoko.ledger",
	}
}

// LoadConfig overlays configFile (when given or found at ~/.okinoko/okinoko.yaml)
// and the environment onto the defaults.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".okinoko", "okinoko.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process("okinoko", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendBadger, BackendBolt:
		if c.DataDir == "" {
			return fmt.Errorf("backend %q needs a data dir", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q (want memory, badger or bolt)", c.Backend)
	}
	if c.Port == 0 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	return nil
}

// ListenAddr is BindAddr:Port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.Port)
}
