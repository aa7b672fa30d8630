package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the console session.
type Metrics struct {
	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: provider={openmeteo,google}, outcome={success,not_found,error}
	GeocodeCache       *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: provider

	// Archive metrics.
	ArchiveRequests    *prometheus.CounterVec // labels: outcome={success,format_error,transport_error,circuit_open}
	ArchiveAPIDuration prometheus.Histogram
	PointsLoaded       prometheus.Histogram

	// Session metrics.
	DatasetsLoaded      prometheus.Gauge
	DateChangeRollbacks prometheus.Counter
	ShellCommands       *prometheus.CounterVec // labels: command
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "histtemps",
			Name:      "geocode_requests_total",
			Help:      "Geocoding requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "histtemps",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "histtemps",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),
		ArchiveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "histtemps",
			Name:      "archive_requests_total",
			Help:      "Weather archive requests by outcome.",
		}, []string{"outcome"}),
		ArchiveAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "histtemps",
			Name:      "archive_api_duration_seconds",
			Help:      "Weather archive request duration in seconds, including body decode.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PointsLoaded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "histtemps",
			Name:      "archive_points_loaded",
			Help:      "Number of daily points per successful archive load.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		DatasetsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "histtemps",
			Name:      "datasets_loaded",
			Help:      "Number of dataset slots currently holding a dataset (0-2).",
		}),
		DateChangeRollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "histtemps",
			Name:      "date_change_rollbacks_total",
			Help:      "Date range changes rejected and rolled back.",
		}),
		ShellCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "histtemps",
			Name:      "shell_commands_total",
			Help:      "Menu commands dispatched by the interactive shell.",
		}, []string{"command"}),
	}

	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.ArchiveRequests,
		m.ArchiveAPIDuration,
		m.PointsLoaded,
		m.DatasetsLoaded,
		m.DateChangeRollbacks,
		m.ShellCommands,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		GeocodeRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "histtemps", Name: "geocode_requests_total"}, []string{"provider", "outcome"}),
		GeocodeCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "histtemps", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "histtemps", Name: "geocode_api_duration_seconds"}, []string{"provider"}),
		ArchiveRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "histtemps", Name: "archive_requests_total"}, []string{"outcome"}),
		ArchiveAPIDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "histtemps", Name: "archive_api_duration_seconds"}),
		PointsLoaded:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "histtemps", Name: "archive_points_loaded"}),
		DatasetsLoaded:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "histtemps", Name: "datasets_loaded"}),
		DateChangeRollbacks: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "histtemps", Name: "date_change_rollbacks_total"}),
		ShellCommands:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "histtemps", Name: "shell_commands_total"}, []string{"command"}),
	}
}
