// Package serve implements the long-running ingestion service command.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoofbeat/hoofbeat-go/internal/api"
	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/geocoding"
	"github.com/hoofbeat/hoofbeat-go/internal/logging"
	"github.com/hoofbeat/hoofbeat-go/internal/scanner"
	"github.com/hoofbeat/hoofbeat-go/internal/seed"
)

const shutdownTimeout = 30 * time.Second

// Command returns the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion service with its HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	logger := logging.ForService("serve")

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() { _ = store.Close() }()

	reconciler := seed.NewReconciler(settings, store)
	if err := reconciler.Reconcile(); err != nil {
		return fmt.Errorf("reconciling seed catalog: %w", err)
	}
	if err := reconciler.BackfillPlaceholders(); err != nil {
		return fmt.Errorf("backfilling placeholder venues: %w", err)
	}
	if err := seed.RegisterParsers(settings); err != nil {
		return fmt.Errorf("registering parsers: %w", err)
	}

	geocoder := geocoding.New(settings)
	defer geocoder.Close()

	orchestrator := scanner.New(settings, store, geocoder)
	if err := orchestrator.RecoverInterrupted(); err != nil {
		return fmt.Errorf("recovering interrupted scans: %w", err)
	}

	controller := api.New(settings, store, orchestrator)

	errCh := make(chan error, 1)
	go func() {
		if err := controller.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	logger.Info("service started", "port", settings.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := controller.Shutdown(ctx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	orchestrator.Shutdown()
	return nil
}
