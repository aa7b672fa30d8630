// Package google resolves zip codes with the Google Geocoding API.
package google

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/historical-temps/internal/domain"
	"github.com/couchcryptid/historical-temps/internal/observability"
	"github.com/kelvins/geocoder"
)

const providerName = "google"

// Geocoder implements domain.LocationResolver on top of kelvins/geocoder.
// The underlying client has no context support; ctx is only checked before
// each call.
type Geocoder struct {
	forward func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewGeocoder configures the package-level API key of kelvins/geocoder and
// returns a resolver using it.
func NewGeocoder(apiKey string, metrics *observability.Metrics, logger *slog.Logger) *Geocoder {
	geocoder.ApiKey = apiKey
	return &Geocoder{
		forward: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve forward-geocodes the zip code, then makes one best-effort reverse
// lookup for the city name. The zip code is used as the name when the reverse
// lookup fails.
func (g *Geocoder) Resolve(ctx context.Context, zipCode string) (domain.Location, error) {
	if err := ctx.Err(); err != nil {
		return domain.Location{}, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	start := time.Now()
	point, err := g.forward(geocoder.Address{PostalCode: zipCode, Country: "US"})
	g.metrics.GeocodeAPIDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		g.metrics.GeocodeRequests.WithLabelValues(providerName, "not_found").Inc()
		g.logger.Warn("google geocoding failed", "zip_code", zipCode, "error", err)
		return domain.Location{}, fmt.Errorf("%w: geocode zip code %q: %w", domain.ErrLookup, zipCode, err)
	}

	loc := domain.Location{Latitude: point.Latitude, Longitude: point.Longitude, DisplayName: zipCode}
	if !loc.Valid() || (loc.Latitude == 0 && loc.Longitude == 0) {
		g.metrics.GeocodeRequests.WithLabelValues(providerName, "not_found").Inc()
		return domain.Location{}, fmt.Errorf("%w: zip code %q has no coordinates", domain.ErrLookup, zipCode)
	}
	g.metrics.GeocodeRequests.WithLabelValues(providerName, "success").Inc()

	if ctx.Err() == nil {
		if name := g.placeName(point); name != "" {
			loc.DisplayName = name
		}
	}
	return loc, nil
}

func (g *Geocoder) placeName(point geocoder.Location) string {
	addresses, err := g.reverse(point)
	if err != nil {
		g.logger.Debug("google reverse geocoding failed", "lat", point.Latitude, "lon", point.Longitude, "error", err)
		return ""
	}
	for _, a := range addresses {
		if a.City != "" {
			return a.City
		}
	}
	return ""
}
