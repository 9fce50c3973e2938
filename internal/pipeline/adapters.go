package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hazard-risk-service/internal/domain"
	"github.com/couchcryptid/hazard-risk-service/internal/observability"
)

// Category names used in logs and metrics.
const (
	CategoryWeather    = "weather"
	CategoryRisk       = "risk"
	CategoryAirQuality = "air_quality"
	CategoryAlert      = "alert"
	CategoryProximity  = "proximity"
)

// User-facing messages for degraded categories.
const (
	msgWeatherUnavailable  = "Weather data not available from any source."
	msgForecastUnavailable = "Forecast data not available from any source."
	msgAirUnavailable      = "Air quality data not available."
	msgNoAlerts            = "No active alerts for this location."
)

// WeatherAdapter fetches current conditions with one fallback attempt.
type WeatherAdapter struct {
	primary  domain.WeatherProvider
	fallback domain.WeatherProvider
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewWeatherAdapter(primary, fallback domain.WeatherProvider, logger *slog.Logger, metrics *observability.Metrics) *WeatherAdapter {
	return &WeatherAdapter{primary: primary, fallback: fallback, logger: logger, metrics: metrics}
}

// Fetch tries the primary, then the fallback exactly once.
func (a *WeatherAdapter) Fetch(ctx context.Context, c domain.Coordinate) domain.Result[domain.WeatherReading] {
	f := failover[domain.WeatherReading]{category: CategoryWeather, logger: a.logger, metrics: a.metrics}
	reading, err := f.run(ctx,
		a.primary.Name(), func(ctx context.Context) (domain.WeatherReading, error) { return a.primary.CurrentWeather(ctx, c) },
		a.fallback.Name(), func(ctx context.Context) (domain.WeatherReading, error) { return a.fallback.CurrentWeather(ctx, c) },
	)
	if err != nil {
		return domain.Failed[domain.WeatherReading](err, msgWeatherUnavailable)
	}
	return domain.OK(reading)
}

// ForecastAdapter fetches the risk window with one fallback attempt.
type ForecastAdapter struct {
	primary  domain.ForecastProvider
	fallback domain.ForecastProvider
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewForecastAdapter(primary, fallback domain.ForecastProvider, logger *slog.Logger, metrics *observability.Metrics) *ForecastAdapter {
	return &ForecastAdapter{primary: primary, fallback: fallback, logger: logger, metrics: metrics}
}

// Fetch tries the primary, then the fallback exactly once.
func (a *ForecastAdapter) Fetch(ctx context.Context, c domain.Coordinate) domain.Result[domain.Forecast] {
	f := failover[domain.Forecast]{category: CategoryRisk, logger: a.logger, metrics: a.metrics}
	forecast, err := f.run(ctx,
		a.primary.Name(), func(ctx context.Context) (domain.Forecast, error) { return a.primary.Forecast(ctx, c) },
		a.fallback.Name(), func(ctx context.Context) (domain.Forecast, error) { return a.fallback.Forecast(ctx, c) },
	)
	if err != nil {
		return domain.Failed[domain.Forecast](err, msgForecastUnavailable)
	}
	return domain.OK(forecast)
}

// AirQualityAdapter has no fallback; failure is reported as unavailable.
type AirQualityAdapter struct {
	provider domain.AirQualityProvider
	logger   *slog.Logger
}

func NewAirQualityAdapter(provider domain.AirQualityProvider, logger *slog.Logger) *AirQualityAdapter {
	return &AirQualityAdapter{provider: provider, logger: logger}
}

func (a *AirQualityAdapter) Fetch(ctx context.Context, c domain.Coordinate) domain.Result[domain.AirQualityReport] {
	reading, err := a.provider.AirQuality(ctx, c)
	if err != nil {
		a.logger.Warn("air quality unavailable", "error", err, "coordinate", c.String())
		return domain.Failed[domain.AirQualityReport](fmt.Errorf("%w: %w", domain.ErrUnavailable, err), msgAirUnavailable)
	}
	return domain.OK(domain.AirQualityReport{Reading: reading, Label: reading.Label()})
}

// AlertsAdapter surfaces the first active regional alert. A failed lookup,
// including any point outside NWS coverage, reports none.
type AlertsAdapter struct {
	provider domain.AlertProvider
	logger   *slog.Logger
}

func NewAlertsAdapter(provider domain.AlertProvider, logger *slog.Logger) *AlertsAdapter {
	return &AlertsAdapter{provider: provider, logger: logger}
}

func (a *AlertsAdapter) Fetch(ctx context.Context, c domain.Coordinate) domain.Result[domain.AlertEvent] {
	alerts, err := a.provider.Alerts(ctx, c)
	if err != nil {
		a.logger.Debug("regional alerts lookup failed", "error", err, "coordinate", c.String())
		r := domain.None[domain.AlertEvent](msgNoAlerts)
		r.Err = err
		return r
	}
	if len(alerts) == 0 {
		return domain.None[domain.AlertEvent](msgNoAlerts)
	}
	return domain.OK(alerts[0])
}

// failover runs primary then, only if it fails, fallback. The two attempts
// are strictly sequential.
type failover[T any] struct {
	category string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func (f failover[T]) run(
	ctx context.Context,
	primaryName string, primary func(context.Context) (T, error),
	fallbackName string, fallback func(context.Context) (T, error),
) (T, error) {
	v, perr := primary(ctx)
	if perr == nil {
		return v, nil
	}
	f.logger.Warn("primary source failed, trying fallback",
		"category", f.category, "primary", primaryName, "fallback", fallbackName, "error", perr)
	if f.metrics != nil {
		f.metrics.Fallbacks.WithLabelValues(f.category).Inc()
	}

	v, ferr := fallback(ctx)
	if ferr == nil {
		return v, nil
	}
	f.logger.Warn("all sources failed",
		"category", f.category, "primary", primaryName, "fallback", fallbackName, "error", ferr)

	var zero T
	return zero, fmt.Errorf("%s: %w", f.category, errors.Join(domain.ErrAllSourcesFailed, perr, ferr))
}
