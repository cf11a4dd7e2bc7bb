package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"okinoko_ledger/api"
	"okinoko_ledger/contract"
	"okinoko_ledger/events"
	"okinoko_ledger/internal/config"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API and metrics for the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := commonRun()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := cfg.OpenStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var registerer prometheus.Registerer
	opts := []contract.FactoryOptionFunc{contract.WithLogger(logger)}
	apiOpts := []api.ServerOptionFunc{api.WithLogger(logger)}
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, contract.WithPromRegistry(reg))
		apiOpts = append(apiOpts, api.WithGatherer(reg))
		registerer = reg
	}

	var bus *events.Bus
	if cfg.NatsUrl != "" {
		bus = events.NewBus(registerer, logger)
		defer bus.Stop()
		sink, err := events.DialNATS(cfg.NatsUrl, cfg.NatsSubject, logger)
		if err != nil {
			return err
		}
		bus.RegisterSubscriber(sink)
		opts = append(opts, contract.WithEmitter(bus))
	}

	f := contract.NewFactory(store, opts...)
	if err := f.Open(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           api.NewServer(f, apiOpts...).Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving ledger API on "+cfg.ListenAddr(), "component", programName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down", "component", programName)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
