package geocache

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/couchcryptid/historical-temps/internal/domain"
	"github.com/couchcryptid/historical-temps/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingResolver struct {
	calls map[string]int
	fail  map[string]error
}

func newCountingResolver() *countingResolver {
	return &countingResolver{calls: map[string]int{}, fail: map[string]error{}}
}

func (m *countingResolver) Resolve(_ context.Context, zip string) (domain.Location, error) {
	m.calls[zip]++
	if err, ok := m.fail[zip]; ok {
		return domain.Location{}, err
	}
	return domain.Location{Latitude: 37.39, Longitude: -122.08, DisplayName: "Place " + zip}, nil
}

func newCache(t *testing.T, inner domain.LocationResolver, size int) (*CachedResolver, *observability.Metrics) {
	t.Helper()
	m := observability.NewMetricsForTesting()
	c, err := NewCachedResolver(inner, size, m)
	require.NoError(t, err)
	return c, m
}

// --- CachedResolver tests ---

func TestCachedResolver_Hit(t *testing.T) {
	inner := newCountingResolver()
	cached, m := newCache(t, inner, 10)

	l1, err := cached.Resolve(context.Background(), "94041")
	require.NoError(t, err)
	l2, err := cached.Resolve(context.Background(), "94041")
	require.NoError(t, err)

	assert.Equal(t, l1, l2)
	assert.Equal(t, 1, inner.calls["94041"], "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedResolver_TrimsKey(t *testing.T) {
	inner := newCountingResolver()
	cached, _ := newCache(t, inner, 10)

	_, _ = cached.Resolve(context.Background(), "94041")
	_, _ = cached.Resolve(context.Background(), " 94041 ")

	assert.Equal(t, 1, inner.calls["94041"])
	assert.Zero(t, inner.calls[" 94041 "])
}

func TestCachedResolver_ProviderSeesTrimmedKey(t *testing.T) {
	inner := newCountingResolver()
	cached, _ := newCache(t, inner, 10)

	loc, err := cached.Resolve(context.Background(), "  10001\t")
	require.NoError(t, err)
	assert.Equal(t, "Place 10001", loc.DisplayName)

	_, err = cached.Resolve(context.Background(), "10001")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls["10001"])
	assert.Len(t, inner.calls, 1, "untrimmed input must never reach the provider")
}

func TestCachedResolver_DifferentKeysMiss(t *testing.T) {
	inner := newCountingResolver()
	cached, _ := newCache(t, inner, 10)

	_, _ = cached.Resolve(context.Background(), "94041")
	_, _ = cached.Resolve(context.Background(), "10001")

	assert.Equal(t, 1, inner.calls["94041"])
	assert.Equal(t, 1, inner.calls["10001"])
	assert.Equal(t, 2, cached.Len())
}

func TestCachedResolver_MissesAreNotCached(t *testing.T) {
	inner := newCountingResolver()
	inner.fail["00000"] = fmt.Errorf("%w: no match", domain.ErrLookup)
	cached, _ := newCache(t, inner, 10)

	for range 2 {
		_, err := cached.Resolve(context.Background(), "00000")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrLookup))
	}

	assert.Equal(t, 2, inner.calls["00000"], "failed lookups must reach the provider again")
	assert.Zero(t, cached.Len())
}

func TestCachedResolver_Eviction(t *testing.T) {
	inner := newCountingResolver()
	cached, _ := newCache(t, inner, 2)
	ctx := context.Background()

	_, _ = cached.Resolve(ctx, "a")
	_, _ = cached.Resolve(ctx, "b")
	_, _ = cached.Resolve(ctx, "a") // promote a
	_, _ = cached.Resolve(ctx, "c") // evicts b

	_, _ = cached.Resolve(ctx, "a")
	_, _ = cached.Resolve(ctx, "b")

	assert.Equal(t, 1, inner.calls["a"], "a was used recently and should stay cached")
	assert.Equal(t, 2, inner.calls["b"], "b should have been evicted")
}

func TestNewCachedResolver_RejectsNonPositiveSize(t *testing.T) {
	_, err := NewCachedResolver(newCountingResolver(), 0, observability.NewMetricsForTesting())
	require.Error(t, err)
}
