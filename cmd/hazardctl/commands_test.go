package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-risk-service/internal/domain"
)

type fakeQuerier struct {
	searched []string
	queried  []domain.LocationQuery
	err      error
}

func (f *fakeQuerier) Search(_ context.Context, text string) (domain.QueryResult, error) {
	f.searched = append(f.searched, text)
	if f.err != nil {
		return domain.QueryResult{}, f.err
	}
	return sampleResult(domain.LocationQuery{
		DisplayName: "Paris, Ile-de-France, France",
		Coordinate:  domain.Coordinate{Lat: 48.8566, Lon: 2.3522},
	}), nil
}

func (f *fakeQuerier) Query(_ context.Context, loc domain.LocationQuery) domain.QueryResult {
	f.queried = append(f.queried, loc)
	return sampleResult(loc)
}

type fakeRefresher struct {
	calls int
	snap  domain.EventSnapshot
}

func (f *fakeRefresher) Refresh(context.Context) domain.EventSnapshot {
	f.calls++
	return f.snap
}

func sampleResult(loc domain.LocationQuery) domain.QueryResult {
	return domain.QueryResult{
		Location: loc,
		Weather: domain.OK(domain.WeatherReading{
			TemperatureC: 21.5, WindSpeedMs: 3.2, HumidityPct: 55, Condition: "few clouds", Provider: "openweather",
		}),
		Risk:       domain.Failed[domain.RiskReport](domain.ErrAllSourcesFailed, "Forecast data not available from any source."),
		AirQuality: domain.OK(domain.AirQualityReport{Reading: domain.AirQualityReading{AQILevel: 2, PM25: 8.4}, Label: "Fair"}),
		Alert:      domain.None[domain.AlertEvent]("No active alerts for this location."),
		Proximity:  domain.None[domain.ProximityAlert]("No reported hazard events within 250 km."),
	}
}

type harness struct {
	queries *fakeQuerier
	events  *fakeRefresher
	closed  int
	stdout  bytes.Buffer
}

func newHarness() *harness {
	return &harness{queries: &fakeQuerier{}, events: &fakeRefresher{}}
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	open := func(*cobra.Command, bool) (*backend, error) {
		return &backend{queries: h.queries, events: h.events, close: func() error { h.closed++; return nil }}, nil
	}
	root := newRootCmd(open)
	root.SetOut(&h.stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func TestQuery_ByPlace(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run(t, "query", "Paris,", "France"))

	assert.Equal(t, []string{"Paris, France"}, h.queries.searched)
	assert.Equal(t, 1, h.events.calls, "events refreshed before the query")
	assert.Equal(t, 1, h.closed)

	out := h.stdout.String()
	assert.Contains(t, out, "Paris, Ile-de-France, France")
	assert.Contains(t, out, "21.5°C, few clouds")
	assert.Contains(t, out, "Forecast data not available from any source.")
	assert.Contains(t, out, "Fair (AQI 2, PM2.5 8.4)")
	assert.Contains(t, out, "No active alerts for this location.")
	assert.Contains(t, out, "No reported hazard events within 250 km.")
}

func TestQuery_ByCoordinateJSON(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run(t, "query", "--lat", "35.6762", "--lon", "139.6503", "--json"))

	require.Len(t, h.queries.queried, 1)
	assert.Equal(t, "35.6762,139.6503", h.queries.queried[0].DisplayName)

	var got domain.QueryResult
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	assert.Equal(t, domain.StatusOK, got.Weather.Status)
	assert.Equal(t, domain.StatusAllSourcesFailed, got.Risk.Status)
}

func TestQuery_CoordinateWithName(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run(t, "query", "--lat", "35.6762", "--lon", "139.6503", "--name", "Tokyo"))

	require.Len(t, h.queries.queried, 1)
	assert.Equal(t, "Tokyo", h.queries.queried[0].DisplayName)
}

func TestQuery_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing", []string{"query"}, "required"},
		{"lat only", []string{"query", "--lat", "10"}, "together"},
		{"both forms", []string{"query", "Paris", "--lat", "1", "--lon", "2"}, "not both"},
		{"out of range", []string{"query", "--lat", "91", "--lon", "0"}, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			err := h.run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, h.queries.searched)
			assert.Empty(t, h.queries.queried)
		})
	}
}

func TestQuery_NotFound(t *testing.T) {
	h := newHarness()
	h.queries.err = &domain.LocationNotFoundError{Query: "Atlantis"}

	err := h.run(t, "query", "Atlantis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), "London, UK")
	assert.Equal(t, 1, h.closed)
}

func TestEvents_List(t *testing.T) {
	h := newHarness()
	h.events.snap = domain.EventSnapshot{
		Seismic: []domain.GlobalHazardEvent{{
			Title: "[Mag 6.1] near Honshu", Category: "Earthquakes", Feed: domain.FeedSeismic,
			Coordinate: domain.Coordinate{Lat: 36.1, Lon: 140.2}, Magnitude: 6.1,
		}},
		Hazards: []domain.GlobalHazardEvent{{
			Title: "[Wildfires] Creek Fire", Category: "Wildfires", Feed: domain.FeedHazards,
			Coordinate: domain.Coordinate{Lat: 37.2, Lon: -119.3},
		}},
		RefreshedAt: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC),
	}

	require.NoError(t, h.run(t, "events"))

	out := h.stdout.String()
	assert.Contains(t, out, "2 events, refreshed 2026-01-10 08:00:00 UTC")
	assert.Less(t, bytes.Index(h.stdout.Bytes(), []byte("Creek Fire")), bytes.Index(h.stdout.Bytes(), []byte("Honshu")),
		"hazards are listed before seismic events")
}

func TestEvents_RejectsArgs(t *testing.T) {
	h := newHarness()
	require.Error(t, h.run(t, "events", "extra"))
	assert.Zero(t, h.events.calls)
}

func TestOpenBackendError(t *testing.T) {
	root := newRootCmd(func(*cobra.Command, bool) (*backend, error) {
		return nil, errors.New("load config: invalid PROXIMITY_POLICY")
	})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"events"})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROXIMITY_POLICY")
}
