// Command mockserver serves a deterministic copy of the Open-Meteo geocoding
// and archive endpoints for offline runs.
//
// Usage:
//
//	go run ./cmd/mockserver -addr :8089
//	GEOCODING_BASE_URL=http://localhost:8089/v1/search \
//	ARCHIVE_BASE_URL=http://localhost:8089/v1/archive go run ./cmd/histtemps
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/historical-temps/internal/mockarchive"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mock server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", sharedcfg.EnvOrDefault("MOCK_ADDR", ":8089"), "listen address")
	verbose := flag.Bool("v", false, "log every request")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      mockarchive.New(mockarchive.DefaultPlaces(), logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mock archive listening", "addr", *addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
