package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Dataset is the cached temperature series for one zip code and date range.
// It is not safe for concurrent use.
type Dataset struct {
	zipCode   string
	location  Location
	dateRange DateRange
	series    []TemperaturePoint
	loadedAt  time.Time

	loader SeriesLoader
	logger *slog.Logger
}

// Option configures a Dataset at construction.
type Option func(*Dataset)

// WithRange overrides the default archive window.
func WithRange(r DateRange) Option {
	return func(d *Dataset) {
		d.dateRange = r
	}
}

// WithLogger sets the logger used for reload diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dataset) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDataset resolves the zip code and loads its series. An unresolvable zip
// code returns an error wrapping ErrLookup and no dataset.
func NewDataset(ctx context.Context, zipCode string, resolver LocationResolver, loader SeriesLoader, opts ...Option) (*Dataset, error) {
	d := &Dataset{
		zipCode:   zipCode,
		dateRange: DefaultRange(),
		loader:    loader,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	loc, err := resolver.Resolve(ctx, zipCode)
	if err != nil {
		if errors.Is(err, ErrLookup) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: resolve zip code %q: %w", ErrLookup, zipCode, err)
	}
	if !loc.Valid() {
		return nil, fmt.Errorf("%w: zip code %q has no coordinates", ErrLookup, zipCode)
	}
	d.location = loc

	series, err := loader.LoadSeries(ctx, loc, d.dateRange)
	if err != nil {
		return nil, fmt.Errorf("load series for %q: %w", zipCode, err)
	}
	d.commit(d.dateRange, series)

	d.logger.Debug("dataset loaded",
		"zip_code", zipCode,
		"place", loc.DisplayName,
		"start", d.dateRange.Start,
		"end", d.dateRange.End,
		"points", len(series),
	)
	return d, nil
}

// SetStart moves the start of the range and reloads the series. On failure the
// dataset keeps its previous range and series and the error wraps ErrLookup.
func (d *Dataset) SetStart(ctx context.Context, start string) error {
	next := d.dateRange
	next.Start = start
	return d.changeRange(ctx, next)
}

// SetEnd moves the end of the range and reloads the series. On failure the
// dataset keeps its previous range and series and the error wraps ErrLookup.
func (d *Dataset) SetEnd(ctx context.Context, end string) error {
	next := d.dateRange
	next.End = end
	return d.changeRange(ctx, next)
}

// changeRange loads the series for next and commits both together only when
// the load succeeds.
func (d *Dataset) changeRange(ctx context.Context, next DateRange) error {
	series, err := d.loader.LoadSeries(ctx, d.location, next)
	if err != nil {
		d.logger.Warn("date range change rejected, keeping previous range",
			"zip_code", d.zipCode,
			"start", next.Start,
			"end", next.End,
			"kept_start", d.dateRange.Start,
			"kept_end", d.dateRange.End,
			"error", err,
		)
		return fmt.Errorf("%w: change range to %s..%s: %w", ErrLookup, next.Start, next.End, err)
	}
	d.commit(next, series)
	return nil
}

func (d *Dataset) commit(r DateRange, series []TemperaturePoint) {
	d.dateRange = r
	d.series = series
	d.loadedAt = clock.Now()
}

// ZipCode returns the zip code the dataset was created for.
func (d *Dataset) ZipCode() string { return d.zipCode }

// Location returns the resolved location.
func (d *Dataset) Location() Location { return d.location }

// DisplayName returns the resolved place name.
func (d *Dataset) DisplayName() string { return d.location.DisplayName }

// Range returns the committed date range.
func (d *Dataset) Range() DateRange { return d.dateRange }

// Series returns a copy of the cached series.
func (d *Dataset) Series() []TemperaturePoint { return slices.Clone(d.series) }

// Len returns the number of cached points.
func (d *Dataset) Len() int { return len(d.series) }

// LoadedAt returns when the current series was committed.
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }
