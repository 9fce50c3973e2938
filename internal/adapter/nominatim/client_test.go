package nominatim

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-risk-service/internal/adapter/upstream"
	"github.com/couchcryptid/hazard-risk-service/internal/domain"
	"github.com/couchcryptid/hazard-risk-service/internal/observability"
)

type countingGate struct {
	calls atomic.Int32
	err   error
}

func (g *countingGate) Wait(context.Context) error {
	g.calls.Add(1)
	return g.err
}

func newTestClient(t *testing.T, handler http.HandlerFunc, gate *countingGate) (*Client, *observability.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	metrics := observability.NewMetricsForTesting()
	hc := upstream.New("nominatim", srv.URL, 5*time.Second, metrics)
	return NewClient(hc, gate, metrics, slog.Default()), metrics
}

func TestResolve_Success(t *testing.T) {
	gate := &countingGate{}
	c, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "London, UK", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"51.5073219","lon":"-0.1276474","display_name":"London, Greater London, England, United Kingdom"}]`))
	}, gate)

	loc, err := c.Resolve(context.Background(), "  London, UK ")
	require.NoError(t, err)

	assert.Equal(t, "London, Greater London, England, United Kingdom", loc.DisplayName)
	assert.InDelta(t, 51.5073219, loc.Coordinate.Lat, 1e-9)
	assert.InDelta(t, -0.1276474, loc.Coordinate.Lon, 1e-9)
	assert.Equal(t, int32(1), gate.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("success")))
}

func TestResolve_NoMatch(t *testing.T) {
	c, metrics := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}, &countingGate{})

	_, err := c.Resolve(context.Background(), "Nowhereville")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var nf *domain.LocationNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Nowhereville", nf.Query)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("not_found")))
}

func TestResolve_EmptyTextSkipsUpstream(t *testing.T) {
	gate := &countingGate{}
	c, _ := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("upstream should not be called")
	}, gate)

	_, err := c.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int32(0), gate.calls.Load())
}

func TestResolve_ServerErrorIsTransient(t *testing.T) {
	c, metrics := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, &countingGate{})

	_, err := c.Resolve(context.Background(), "Paris")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("error")))
}

func TestResolve_BadCoordinateIsTransient(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"north","lon":"0","display_name":"Broken"}]`))
	}, &countingGate{})

	_, err := c.Resolve(context.Background(), "Broken")
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestResolve_GateErrorIsTransient(t *testing.T) {
	gate := &countingGate{err: context.Canceled}
	c, _ := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("upstream should not be called")
	}, gate)

	_, err := c.Resolve(context.Background(), "Paris")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.True(t, errors.Is(err, context.Canceled))
}
