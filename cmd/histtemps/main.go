// Command histtemps is an interactive console for exploring historical daily
// maximum temperatures by US zip code.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/couchcryptid/historical-temps/internal/adapter/geocache"
	"github.com/couchcryptid/historical-temps/internal/adapter/google"
	httpadapter "github.com/couchcryptid/historical-temps/internal/adapter/http"
	"github.com/couchcryptid/historical-temps/internal/adapter/openmeteo"
	"github.com/couchcryptid/historical-temps/internal/config"
	"github.com/couchcryptid/historical-temps/internal/domain"
	"github.com/couchcryptid/historical-temps/internal/observability"
	"github.com/couchcryptid/historical-temps/internal/shell"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	resolver, err := newResolver(cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to build geocoder", "error", err)
		os.Exit(1)
	}
	archive := openmeteo.NewArchive(cfg.ArchiveBaseURL, cfg.ArchiveTimezone, cfg.HTTPTimeout, cfg.BreakerMaxFailures, metrics, logger)

	dateRange := domain.DateRange{Start: cfg.DefaultStartDate, End: cfg.DefaultEndDate}
	factory := shell.NewDatasetFactory(resolver, archive, dateRange, logger)
	sh := shell.New(os.Stdin, os.Stdout, factory, cfg.TopDays, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, sh.Session(), prometheus.DefaultGatherer, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx, cfg.ShutdownTimeout); err != nil {
				logger.Error("diagnostics server error", "error", err)
			}
		}()
	}

	runErr := sh.Run(ctx)
	stop()
	wg.Wait()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("shell error", "error", runErr)
		os.Exit(1)
	}
}

// newResolver selects the geocoding provider and layers the LRU cache on it
// when GEOCODE_CACHE_SIZE is positive.
func newResolver(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.LocationResolver, error) {
	var resolver domain.LocationResolver
	switch cfg.Geocoder {
	case "google":
		resolver = google.NewGeocoder(cfg.GoogleAPIKey, metrics, logger)
	default:
		resolver = openmeteo.NewGeocoder(cfg.GeocodingBaseURL, cfg.HTTPTimeout, cfg.BreakerMaxFailures, metrics, logger)
	}
	logger.Info("geocoder selected", "provider", cfg.Geocoder, "cache_size", cfg.GeocodeCacheSize)

	if cfg.GeocodeCacheSize == 0 {
		return resolver, nil
	}
	cached, err := geocache.NewCachedResolver(resolver, cfg.GeocodeCacheSize, metrics)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
