package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/historical-temps/internal/domain"
	"github.com/couchcryptid/historical-temps/internal/observability"
)

// dailyMetric is the only daily variable requested from the archive.
const dailyMetric = "temperature_2m_max"

// Archive implements domain.SeriesLoader using the Open-Meteo historical
// weather API.
type Archive struct {
	upstream
	baseURL  string
	timezone string
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewArchive creates an archive client. timezone aligns day boundaries, e.g.
// "America/Los_Angeles".
func NewArchive(baseURL, timezone string, timeout time.Duration, maxFailures int, metrics *observability.Metrics, logger *slog.Logger) *Archive {
	return &Archive{
		upstream: newUpstream("openmeteo-archive", timeout, maxFailures, logger),
		baseURL:  baseURL,
		timezone: timezone,
		metrics:  metrics,
		logger:   logger,
	}
}

// LoadSeries fetches the daily maximum temperatures for loc over r, in the
// archive's (ascending) order. Days without a reading are skipped.
func (a *Archive) LoadSeries(ctx context.Context, loc domain.Location, r domain.DateRange) ([]domain.TemperaturePoint, error) {
	params := url.Values{
		"latitude":   {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
		"start_date": {r.Start},
		"end_date":   {r.End},
		"daily":      {dailyMetric},
		"timezone":   {a.timezone},
	}

	start := time.Now()
	points, err := a.load(ctx, a.baseURL+"?"+params.Encode())
	a.metrics.ArchiveAPIDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := archiveOutcome(err)
		a.metrics.ArchiveRequests.WithLabelValues(outcome).Inc()
		a.logger.Warn("archive load failed",
			"lat", loc.Latitude,
			"lon", loc.Longitude,
			"start", r.Start,
			"end", r.End,
			"outcome", outcome,
			"error", err,
		)
		return nil, err
	}

	a.metrics.ArchiveRequests.WithLabelValues("success").Inc()
	a.metrics.PointsLoaded.Observe(float64(len(points)))
	a.logger.Debug("archive series loaded", "start", r.Start, "end", r.End, "points", len(points))
	return points, nil
}

func (a *Archive) load(ctx context.Context, fullURL string) ([]domain.TemperaturePoint, error) {
	resp, err := a.get(ctx, fullURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read archive response: %w", domain.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Reason != "" {
			return nil, fmt.Errorf("%w: archive rejected request: %s", domain.ErrDataFormat, apiErr.Reason)
		}
		return nil, fmt.Errorf("%w: archive API error: status %d", domain.ErrDataFormat, resp.StatusCode)
	}

	return parseSeries(body)
}

// parseSeries zips daily.time with daily.temperature_2m_max.
func parseSeries(body []byte) ([]domain.TemperaturePoint, error) {
	var payload archiveResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode archive response: %w", domain.ErrDataFormat, err)
	}
	if payload.Daily == nil {
		return nil, fmt.Errorf("%w: archive response has no daily block", domain.ErrDataFormat)
	}

	daily := payload.Daily
	if daily.Time == nil || daily.TempMax == nil {
		return nil, fmt.Errorf("%w: daily block is missing time or %s", domain.ErrDataFormat, dailyMetric)
	}
	if len(daily.Time) != len(daily.TempMax) {
		return nil, fmt.Errorf("%w: %d dates but %d temperatures", domain.ErrDataFormat, len(daily.Time), len(daily.TempMax))
	}

	points := make([]domain.TemperaturePoint, 0, len(daily.Time))
	for i, date := range daily.Time {
		if daily.TempMax[i] == nil {
			continue
		}
		points = append(points, domain.TemperaturePoint{
			Date:           date,
			MaxTempCelsius: *daily.TempMax[i],
		})
	}
	return points, nil
}

func archiveOutcome(err error) string {
	switch {
	case errors.Is(err, errCircuitOpen):
		return "circuit_open"
	case errors.Is(err, domain.ErrDataFormat):
		return "format_error"
	default:
		return "transport_error"
	}
}

// Open-Meteo archive API response types.

type archiveResponse struct {
	Daily *dailyBlock `json:"daily"`
}

type dailyBlock struct {
	Time    []string   `json:"time"`
	TempMax []*float64 `json:"temperature_2m_max"`
}
