// Package geocache provides an in-memory LRU decorator for location resolvers.
package geocache

import (
	"context"
	"strings"

	"github.com/couchcryptid/historical-temps/internal/domain"
	"github.com/couchcryptid/historical-temps/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedResolver wraps a LocationResolver with a bounded LRU cache keyed by
// zip code. Failed lookups are never cached so a retry reaches the provider.
type CachedResolver struct {
	inner   domain.LocationResolver
	cache   *lru.Cache[string, domain.Location]
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator holding up to maxEntries locations.
func NewCachedResolver(inner domain.LocationResolver, maxEntries int, metrics *observability.Metrics) (*CachedResolver, error) {
	cache, err := lru.New[string, domain.Location](maxEntries)
	if err != nil {
		return nil, err
	}
	return &CachedResolver{inner: inner, cache: cache, metrics: metrics}, nil
}

// Resolve returns the cached location for the trimmed zip code, asking the
// wrapped resolver on a miss. The provider sees the same trimmed key.
func (c *CachedResolver) Resolve(ctx context.Context, zipCode string) (domain.Location, error) {
	key := strings.TrimSpace(zipCode)
	if loc, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return loc, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	loc, err := c.inner.Resolve(ctx, key)
	if err != nil {
		return domain.Location{}, err
	}
	if loc.Valid() {
		c.cache.Add(key, loc)
	}
	return loc, nil
}

// Len reports the number of cached locations.
func (c *CachedResolver) Len() int {
	return c.cache.Len()
}
