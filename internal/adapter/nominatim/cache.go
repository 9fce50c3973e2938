package nominatim

import (
	"context"
	"strings"

	"github.com/couchcryptid/hazard-risk-service/internal/cache"
	"github.com/couchcryptid/hazard-risk-service/internal/domain"
	"github.com/couchcryptid/hazard-risk-service/internal/observability"
)

// CachedResolver wraps a Resolver with an in-memory LRU cache.
// Cache hits never touch the rate gate.
type CachedResolver struct {
	inner   domain.Resolver
	cache   *cache.LRU[string, domain.LocationQuery]
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver. metrics may be nil.
func NewCachedResolver(inner domain.Resolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   cache.NewLRU[string, domain.LocationQuery](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, text string) (domain.LocationQuery, error) {
	key := cacheKey(text)
	if loc, ok := c.cache.Get(key); ok {
		c.count("hit")
		return loc, nil
	}
	c.count("miss")

	loc, err := c.inner.Resolve(ctx, text)
	if err != nil {
		// Failures are not cached so a transient error or a typo can be retried.
		return loc, err
	}
	c.cache.Put(key, loc)
	return loc, nil
}

func (c *CachedResolver) count(result string) {
	if c.metrics != nil {
		c.metrics.GeocodeCache.WithLabelValues(result).Inc()
	}
}

// cacheKey folds case and whitespace so "London, UK" and " london,  uk" share an entry.
func cacheKey(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
