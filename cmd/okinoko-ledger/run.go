package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"okinoko_ledger/bank"
	"okinoko_ledger/contract"
	"okinoko_ledger/events"
	"okinoko_ledger/internal/config"
	"okinoko_ledger/internal/scenario"
)

func runCommand() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Replay a scenario of ledger actions against the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := commonRun()
			return runScenario(cmd.Context(), cfg, logger, args[0], quiet)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not log committed events")
	return cmd
}

func runScenario(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string, quiet bool) error {
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}
	store, err := cfg.OpenStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	b := bank.NewMemory()
	if err := s.Fund(b); err != nil {
		return err
	}

	bus := events.NewBus(nil, logger)
	defer bus.Stop()
	if !quiet {
		bus.RegisterSubscriber(events.NewLogSink(logger, slog.LevelInfo))
	}
	if cfg.NatsUrl != "" {
		sink, err := events.DialNATS(cfg.NatsUrl, cfg.NatsSubject, logger)
		if err != nil {
			return err
		}
		bus.RegisterSubscriber(sink)
	}

	f := contract.NewFactory(store,
		contract.WithBank(b),
		contract.WithEmitter(bus),
		contract.WithLogger(logger),
	)
	if err := f.Open(ctx); err != nil {
		return err
	}
	if s.Name != "" {
		fmt.Fprintf(os.Stdout, "# %s\n", s.Name)
	}
	_, err = scenario.NewRunner(f, os.Stdout, logger).Run(ctx, s)
	return err
}
