// Package openmeteo is the keyless fallback for current weather and the
// forecast. Open-Meteo reports wind in km/h; readings are converted to m/s
// before they leave this package.
package openmeteo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-risk-service/internal/adapter/upstream"
	"github.com/couchcryptid/hazard-risk-service/internal/domain"
)

const (
	forecastPath  = "/v1/forecast"
	currentFields = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m"
	dailyFields   = "weather_code,temperature_2m_max,relative_humidity_2m_mean,wind_speed_10m_max,precipitation_probability_max"
	dateLayout    = "2006-01-02"
)

// Client implements domain.WeatherProvider and domain.ForecastProvider
// against the Open-Meteo forecast API.
type Client struct {
	http *upstream.Client
}

func NewClient(http *upstream.Client) *Client {
	return &Client{http: http}
}

func (c *Client) Name() string { return c.http.Name() }

func coordParams(coord domain.Coordinate) map[string]string {
	return map[string]string{
		"latitude":  strconv.FormatFloat(coord.Lat, 'f', -1, 64),
		"longitude": strconv.FormatFloat(coord.Lon, 'f', -1, 64),
	}
}

// CurrentWeather returns current conditions with the WMO code mapped to text.
func (c *Client) CurrentWeather(ctx context.Context, coord domain.Coordinate) (domain.WeatherReading, error) {
	params := coordParams(coord)
	params["current"] = currentFields

	var resp currentResponse
	if err := c.http.GetJSON(ctx, forecastPath, params, &resp); err != nil {
		return domain.WeatherReading{}, err
	}

	cur := resp.Current
	return domain.WeatherReading{
		TemperatureC: cur.Temperature,
		WindSpeedMs:  domain.KmhToMs(cur.WindSpeed),
		HumidityPct:  cur.Humidity,
		Condition:    domain.WeatherCodeDescription(cur.WeatherCode),
		Source:       domain.SourceFallback,
		Provider:     c.Name(),
	}, nil
}

// Forecast returns daily indices 1..RiskWindowDays. Index 0 is today.
func (c *Client) Forecast(ctx context.Context, coord domain.Coordinate) (domain.Forecast, error) {
	params := coordParams(coord)
	params["daily"] = dailyFields

	var resp dailyResponse
	if err := c.http.GetJSON(ctx, forecastPath, params, &resp); err != nil {
		return domain.Forecast{}, err
	}

	days, err := resp.Daily.window()
	if err != nil {
		return domain.Forecast{}, domain.Transient(c.Name(), err)
	}
	return domain.Forecast{Days: days, Source: domain.SourceFallback, Provider: c.Name()}, nil
}

// Open-Meteo API response types.

type currentResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

type dailyResponse struct {
	Daily dailyBlock `json:"daily"`
}

// dailyBlock holds parallel arrays indexed by day, today first.
type dailyBlock struct {
	Time           []string  `json:"time"`
	WeatherCode    []int     `json:"weather_code"`
	TemperatureMax []float64 `json:"temperature_2m_max"`
	HumidityMean   []float64 `json:"relative_humidity_2m_mean"`
	WindSpeedMax   []float64 `json:"wind_speed_10m_max"`
	PrecipProbMax  []float64 `json:"precipitation_probability_max"`
}

func (d dailyBlock) window() ([]domain.ForecastDay, error) {
	need := domain.RiskWindowDays + 1
	lengths := []struct {
		field string
		n     int
	}{
		{"time", len(d.Time)},
		{"weather_code", len(d.WeatherCode)},
		{"temperature_2m_max", len(d.TemperatureMax)},
		{"relative_humidity_2m_mean", len(d.HumidityMean)},
		{"wind_speed_10m_max", len(d.WindSpeedMax)},
		{"precipitation_probability_max", len(d.PrecipProbMax)},
	}
	for _, l := range lengths {
		if l.n < need {
			return nil, fmt.Errorf("daily %s has %d entries, need %d", l.field, l.n, need)
		}
	}

	days := make([]domain.ForecastDay, 0, domain.RiskWindowDays)
	for i := 1; i < need; i++ {
		date, err := time.Parse(dateLayout, d.Time[i])
		if err != nil {
			return nil, fmt.Errorf("parse daily time %q: %w", d.Time[i], err)
		}
		days = append(days, domain.ForecastDay{
			Date:                        date,
			TemperatureMaxC:             d.TemperatureMax[i],
			HumidityPct:                 d.HumidityMean[i],
			WindSpeedMs:                 domain.KmhToMs(d.WindSpeedMax[i]),
			PrecipitationProbabilityPct: d.PrecipProbMax[i],
			IsRainCondition:             domain.IsRainCode(d.WeatherCode[i]),
		})
	}
	return days, nil
}
