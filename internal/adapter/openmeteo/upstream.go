package openmeteo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/historical-temps/internal/domain"
	"github.com/sony/gobreaker"
)

var errCircuitOpen = errors.New("circuit breaker open")

// upstream performs GET requests behind a circuit breaker. It never retries;
// the breaker only fails fast after consecutive transport failures.
type upstream struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func newUpstream(name string, timeout time.Duration, maxFailures int, logger *slog.Logger) upstream {
	if maxFailures < 1 {
		maxFailures = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return upstream{
		httpClient: &http.Client{Timeout: timeout},
		breaker:    cb,
	}
}

// get returns the response for any status below 500. Transport errors, 5xx
// responses and an open breaker are returned wrapped in domain.ErrTransport.
func (u upstream) get(ctx context.Context, fullURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	result, err := u.breaker.Execute(func() (interface{}, error) {
		resp, err := u.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", domain.ErrTransport, errCircuitOpen)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type %T", domain.ErrTransport, result)
	}
	return resp, nil
}

// apiError is the body Open-Meteo returns with 4xx responses.
type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}
