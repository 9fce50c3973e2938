package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-risk-service/internal/domain"
	"github.com/couchcryptid/hazard-risk-service/internal/pipeline"
)

func TestWeatherAdapter_PrimarySuccess(t *testing.T) {
	primary := &fakeWeather{name: "openweather", reading: domain.WeatherReading{TemperatureC: 20, Source: domain.SourcePrimary}}
	fallback := &fakeWeather{name: "openmeteo"}
	a := pipeline.NewWeatherAdapter(primary, fallback, slog.Default(), newTestMetrics())

	r := a.Fetch(context.Background(), paris.Coordinate)

	require.Equal(t, domain.StatusOK, r.Status)
	require.NotNil(t, r.Value)
	assert.Equal(t, domain.SourcePrimary, r.Value.Source)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(0), fallback.calls.Load(), "fallback must not run when primary succeeds")
}

func TestWeatherAdapter_FallbackOnPrimaryFailure(t *testing.T) {
	primary := &fakeWeather{name: "openweather", err: errUpstream}
	fallback := &fakeWeather{name: "openmeteo", reading: domain.WeatherReading{WindSpeedMs: 5, Source: domain.SourceFallback}}
	metrics := newTestMetrics()
	a := pipeline.NewWeatherAdapter(primary, fallback, slog.Default(), metrics)

	r := a.Fetch(context.Background(), paris.Coordinate)

	require.Equal(t, domain.StatusOK, r.Status)
	assert.Equal(t, domain.SourceFallback, r.Value.Source)
	assert.Equal(t, int32(1), fallback.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Fallbacks.WithLabelValues(pipeline.CategoryWeather)))
}

func TestWeatherAdapter_AllSourcesFailed(t *testing.T) {
	primary := &fakeWeather{name: "openweather", err: errUpstream}
	fallback := &fakeWeather{name: "openmeteo", err: domain.Transient("openmeteo", errors.New("timeout"))}
	a := pipeline.NewWeatherAdapter(primary, fallback, slog.Default(), nil)

	r := a.Fetch(context.Background(), paris.Coordinate)

	assert.Equal(t, domain.StatusAllSourcesFailed, r.Status)
	assert.Nil(t, r.Value)
	assert.Equal(t, "Weather data not available from any source.", r.Message)
	assert.ErrorIs(t, r.Err, domain.ErrAllSourcesFailed)
	assert.ErrorIs(t, r.Err, domain.ErrTransient)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), fallback.calls.Load(), "fallback is attempted exactly once")
}

func TestForecastAdapter_FallbackOnPrimaryFailure(t *testing.T) {
	fallbackForecast := hotDryDays()
	fallbackForecast.Source = domain.SourceFallback
	primary := &fakeForecast{name: "openweather", err: errUpstream}
	fallback := &fakeForecast{name: "openmeteo", forecast: fallbackForecast}
	a := pipeline.NewForecastAdapter(primary, fallback, slog.Default(), nil)

	r := a.Fetch(context.Background(), paris.Coordinate)

	require.Equal(t, domain.StatusOK, r.Status)
	assert.Equal(t, domain.SourceFallback, r.Value.Source)
	assert.Len(t, r.Value.Days, domain.RiskWindowDays)
}

func TestForecastAdapter_AllSourcesFailed(t *testing.T) {
	a := pipeline.NewForecastAdapter(
		&fakeForecast{name: "openweather", err: errUpstream},
		&fakeForecast{name: "openmeteo", err: errUpstream},
		slog.Default(), nil)

	r := a.Fetch(context.Background(), paris.Coordinate)

	assert.Equal(t, domain.StatusAllSourcesFailed, r.Status)
	assert.Equal(t, "Forecast data not available from any source.", r.Message)
}

func TestAirQualityAdapter(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		a := pipeline.NewAirQualityAdapter(&fakeAir{reading: domain.AirQualityReading{AQILevel: 4, PM25: 55.2}}, slog.Default())
		r := a.Fetch(context.Background(), paris.Coordinate)

		require.Equal(t, domain.StatusOK, r.Status)
		assert.Equal(t, "Poor", r.Value.Label)
		assert.Equal(t, 55.2, r.Value.Reading.PM25)
	})

	t.Run("failure is unavailable", func(t *testing.T) {
		a := pipeline.NewAirQualityAdapter(&fakeAir{err: errUpstream}, slog.Default())
		r := a.Fetch(context.Background(), paris.Coordinate)

		assert.Equal(t, domain.StatusUnavailable, r.Status)
		assert.Equal(t, "Air quality data not available.", r.Message)
		assert.ErrorIs(t, r.Err, domain.ErrUnavailable)
	})
}

func TestAlertsAdapter(t *testing.T) {
	tornado := domain.AlertEvent{Event: "Tornado Warning", Headline: "Take shelter"}

	tests := []struct {
		name       string
		provider   *fakeAlerts
		wantStatus domain.Status
		wantEvent  string
	}{
		{"first alert wins", &fakeAlerts{alerts: []domain.AlertEvent{tornado, {Event: "Flood Watch"}}}, domain.StatusOK, "Tornado Warning"},
		{"no alerts", &fakeAlerts{}, domain.StatusNone, ""},
		{"lookup failure", &fakeAlerts{err: errUpstream}, domain.StatusNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := pipeline.NewAlertsAdapter(tt.provider, slog.Default())
			r := a.Fetch(context.Background(), paris.Coordinate)

			assert.Equal(t, tt.wantStatus, r.Status)
			if tt.wantEvent == "" {
				assert.Nil(t, r.Value)
				assert.Equal(t, "No active alerts for this location.", r.Message)
				return
			}
			require.NotNil(t, r.Value)
			assert.Equal(t, tt.wantEvent, r.Value.Event)
		})
	}
}
