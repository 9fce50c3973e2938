package nominatim

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-risk-service/internal/domain"
	"github.com/couchcryptid/hazard-risk-service/internal/observability"
)

type countingResolver struct {
	calls  int
	result domain.LocationQuery
	err    error
}

func (m *countingResolver) Resolve(_ context.Context, _ string) (domain.LocationQuery, error) {
	m.calls++
	return m.result, m.err
}

func TestCachedResolver_CacheHit(t *testing.T) {
	inner := &countingResolver{
		result: domain.LocationQuery{DisplayName: "Austin, Texas", Coordinate: domain.Coordinate{Lat: 30.27, Lon: -97.74}},
	}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedResolver(inner, 10, metrics)

	r1, err := cached.Resolve(context.Background(), "Austin, TX")
	require.NoError(t, err)
	r2, err := cached.Resolve(context.Background(), "  austin,   tx ")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")))
}

func TestCachedResolver_ErrorNotCached(t *testing.T) {
	inner := &countingResolver{err: &domain.LocationNotFoundError{Query: "Atlantis"}}
	cached := NewCachedResolver(inner, 10, nil)

	_, err := cached.Resolve(context.Background(), "Atlantis")
	require.Error(t, err)
	_, err = cached.Resolve(context.Background(), "Atlantis")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls, "errors should not be cached")
}

func TestCachedResolver_Eviction(t *testing.T) {
	inner := &countingResolver{result: domain.LocationQuery{DisplayName: "x"}}
	cached := NewCachedResolver(inner, 2, nil)

	ctx := context.Background()
	_, _ = cached.Resolve(ctx, "a")
	_, _ = cached.Resolve(ctx, "b")
	_, _ = cached.Resolve(ctx, "c") // evicts "a"
	assert.Equal(t, 3, inner.calls)

	_, _ = cached.Resolve(ctx, "a")
	assert.Equal(t, 4, inner.calls, "evicted entry should be fetched again")

	_, _ = cached.Resolve(ctx, "c")
	assert.Equal(t, 4, inner.calls, "recent entry should still be cached")
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "london, uk", cacheKey("  London,   UK "))
	assert.Equal(t, "", cacheKey("   "))
}
