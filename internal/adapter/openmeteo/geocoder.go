package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/historical-temps/internal/domain"
	"github.com/couchcryptid/historical-temps/internal/observability"
)

const providerName = "openmeteo"

// Geocoder implements domain.LocationResolver using the Open-Meteo geocoding
// API, which accepts postal codes as search names.
type Geocoder struct {
	upstream
	baseURL string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewGeocoder creates an Open-Meteo geocoding client.
func NewGeocoder(baseURL string, timeout time.Duration, maxFailures int, metrics *observability.Metrics, logger *slog.Logger) *Geocoder {
	return &Geocoder{
		upstream: newUpstream("openmeteo-geocoding", timeout, maxFailures, logger),
		baseURL:  baseURL,
		metrics:  metrics,
		logger:   logger,
	}
}

// Resolve looks up a US zip code. A zip code with no US match returns an
// error wrapping domain.ErrLookup.
func (g *Geocoder) Resolve(ctx context.Context, zipCode string) (domain.Location, error) {
	params := url.Values{
		"name":        {zipCode},
		"count":       {"10"},
		"language":    {"en"},
		"format":      {"json"},
		"countryCode": {"US"},
	}

	start := time.Now()
	loc, outcome, err := g.resolve(ctx, zipCode, g.baseURL+"?"+params.Encode())
	g.metrics.GeocodeAPIDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	g.metrics.GeocodeRequests.WithLabelValues(providerName, outcome).Inc()

	if err != nil {
		g.logger.Warn("geocoding failed", "zip_code", zipCode, "outcome", outcome, "error", err)
		return domain.Location{}, err
	}
	g.logger.Debug("geocoded zip code", "zip_code", zipCode, "place", loc.DisplayName, "lat", loc.Latitude, "lon", loc.Longitude)
	return loc, nil
}

func (g *Geocoder) resolve(ctx context.Context, zipCode, fullURL string) (domain.Location, string, error) {
	resp, err := g.get(ctx, fullURL)
	if err != nil {
		return domain.Location{}, "error", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Reason != "" {
			return domain.Location{}, "not_found", fmt.Errorf("%w: geocoding API rejected %q: %s", domain.ErrLookup, zipCode, apiErr.Reason)
		}
		return domain.Location{}, "not_found", fmt.Errorf("%w: geocoding API error: status %d: %s", domain.ErrLookup, resp.StatusCode, body)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Location{}, "error", fmt.Errorf("%w: decode geocoding response: %w", domain.ErrDataFormat, err)
	}

	r, ok := pickResult(payload.Results, zipCode)
	if !ok {
		return domain.Location{}, "not_found", fmt.Errorf("%w: no US match for zip code %q", domain.ErrLookup, zipCode)
	}

	loc := domain.Location{
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		DisplayName: r.Name,
	}
	if !loc.Valid() {
		return domain.Location{}, "not_found", fmt.Errorf("%w: zip code %q has no coordinates", domain.ErrLookup, zipCode)
	}
	return loc, "success", nil
}

// pickResult prefers a US result that lists the zip code among its postcodes,
// then falls back to the first US result that lists no postcodes at all. A
// result listing only other postcodes is a fuzzy match, not this zip code.
func pickResult(results []searchResult, zipCode string) (searchResult, bool) {
	var fallback *searchResult
	for i := range results {
		r := &results[i]
		if !strings.EqualFold(r.CountryCode, "US") {
			continue
		}
		if slices.Contains(r.Postcodes, zipCode) {
			return *r, true
		}
		if fallback == nil && len(r.Postcodes) == 0 {
			fallback = r
		}
	}
	if fallback == nil {
		return searchResult{}, false
	}
	return *fallback, true
}

// Open-Meteo geocoding API response types.

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Name        string   `json:"name"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	CountryCode string   `json:"country_code"`
	Admin1      string   `json:"admin1"`
	Postcodes   []string `json:"postcodes"`
}
