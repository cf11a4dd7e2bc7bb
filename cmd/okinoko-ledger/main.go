////////////////////////////////////////////////////////////////////////////////
// Okinoko Ledger: governance delegation ledgers for the vsc network
// one ledger instance per operator, replayed or served from a local store
////////////////////////////////////////////////////////////////////////////////

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"okinoko_ledger/internal/config"
)

const programName = "okinoko-ledger"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

// commonRun loads the config and builds the process logger.
func commonRun() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	logLevel := slog.LevelInfo
	addSource := false
	if globalFlags.debug || cfg.Debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	logger := slog.New(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			AddSource: addSource,
			Level:     logLevel,
		}),
	)
	slog.SetDefault(logger)
	logger.Debug("config loaded",
		"component", programName,
		"backend", cfg.Backend,
		"dataDir", cfg.DataDir,
	)
	return cfg, logger
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Delegation ledgers with rewards, owner votes and proposal stake markets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file to load")

	rootCmd.AddCommand(
		runCommand(),
		serveCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error(), "component", programName)
		os.Exit(1)
	}
}
