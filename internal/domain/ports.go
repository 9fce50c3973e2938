package domain

import "context"

// Resolver turns free text into a LocationQuery.
type Resolver interface {
	Resolve(ctx context.Context, text string) (LocationQuery, error)
}

// WeatherProvider returns normalized current conditions.
type WeatherProvider interface {
	Name() string
	CurrentWeather(ctx context.Context, c Coordinate) (WeatherReading, error)
}

// ForecastProvider returns the normalized risk window.
type ForecastProvider interface {
	Name() string
	Forecast(ctx context.Context, c Coordinate) (Forecast, error)
}

// AirQualityProvider returns the current air-quality reading.
type AirQualityProvider interface {
	AirQuality(ctx context.Context, c Coordinate) (AirQualityReading, error)
}

// AlertProvider returns active regional alerts, most relevant first.
type AlertProvider interface {
	Alerts(ctx context.Context, c Coordinate) ([]AlertEvent, error)
}

// HazardFeed returns the current top-N slice of a global event feed.
type HazardFeed interface {
	Name() string
	Events(ctx context.Context) ([]GlobalHazardEvent, error)
}
