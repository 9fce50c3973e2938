// Package openweather is the primary weather and forecast provider and the
// sole air-quality provider.
package openweather

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-risk-service/internal/adapter/upstream"
	"github.com/couchcryptid/hazard-risk-service/internal/domain"
)

const (
	// middaySlice is the dt_txt time-of-day that stands for a whole forecast day.
	middaySlice = "12:00:00"
	dtTxtLayout = "2006-01-02 15:04:05"
	rainGroup   = "Rain"
)

// Client implements domain.WeatherProvider, domain.ForecastProvider and
// domain.AirQualityProvider against the OpenWeather 2.5 API.
type Client struct {
	http   *upstream.Client
	apiKey string
}

// NewClient creates an OpenWeather client. Requests are made in metric units.
func NewClient(http *upstream.Client, apiKey string) *Client {
	return &Client{http: http, apiKey: apiKey}
}

func (c *Client) Name() string { return c.http.Name() }

func (c *Client) params(coord domain.Coordinate) map[string]string {
	return map[string]string{
		"lat":   strconv.FormatFloat(coord.Lat, 'f', -1, 64),
		"lon":   strconv.FormatFloat(coord.Lon, 'f', -1, 64),
		"units": "metric",
		"appid": c.apiKey,
	}
}

// CurrentWeather returns current conditions.
func (c *Client) CurrentWeather(ctx context.Context, coord domain.Coordinate) (domain.WeatherReading, error) {
	var resp currentResponse
	if err := c.http.GetJSON(ctx, "/weather", c.params(coord), &resp); err != nil {
		return domain.WeatherReading{}, err
	}

	condition := ""
	if len(resp.Weather) > 0 {
		condition = resp.Weather[0].Description
		if condition == "" {
			condition = resp.Weather[0].Main
		}
	}

	return domain.WeatherReading{
		TemperatureC: resp.Main.Temp,
		WindSpeedMs:  resp.Wind.Speed,
		HumidityPct:  resp.Main.Humidity,
		Condition:    condition,
		Source:       domain.SourcePrimary,
		Provider:     c.Name(),
	}, nil
}

// Forecast returns the risk window built from the 12:00:00 slice of each of
// the next days after today. Fewer than domain.RiskWindowDays qualifying
// slices is a provider failure.
func (c *Client) Forecast(ctx context.Context, coord domain.Coordinate) (domain.Forecast, error) {
	var resp forecastResponse
	if err := c.http.GetJSON(ctx, "/forecast", c.params(coord), &resp); err != nil {
		return domain.Forecast{}, err
	}

	days, err := selectMiddaySlices(resp.List, domain.Today())
	if err != nil {
		return domain.Forecast{}, domain.Transient(c.Name(), err)
	}
	return domain.Forecast{Days: days, Source: domain.SourcePrimary, Provider: c.Name()}, nil
}

// AirQuality returns the first entry of the air pollution list.
func (c *Client) AirQuality(ctx context.Context, coord domain.Coordinate) (domain.AirQualityReading, error) {
	var resp airResponse
	if err := c.http.GetJSON(ctx, "/air_pollution", c.params(coord), &resp); err != nil {
		return domain.AirQualityReading{}, err
	}
	if len(resp.List) == 0 {
		return domain.AirQualityReading{}, domain.Transient(c.Name(), errors.New("air pollution response has no entries"))
	}
	entry := resp.List[0]
	return domain.AirQualityReading{AQILevel: entry.Main.AQI, PM25: entry.Components.PM25}, nil
}

// selectMiddaySlices keeps midday slices dated strictly after today, in
// order, and returns the first RiskWindowDays of them.
func selectMiddaySlices(list []forecastSlice, today time.Time) ([]domain.ForecastDay, error) {
	days := make([]domain.ForecastDay, 0, domain.RiskWindowDays)
	for _, s := range list {
		if !strings.HasSuffix(s.DtTxt, middaySlice) {
			continue
		}
		ts, err := time.Parse(dtTxtLayout, s.DtTxt)
		if err != nil {
			continue
		}
		date := domain.StartOfDay(ts)
		if !date.After(today) {
			continue
		}
		days = append(days, s.toDay(date))
		if len(days) == domain.RiskWindowDays {
			return days, nil
		}
	}
	return nil, fmt.Errorf("forecast has %d midday slices after today, need %d", len(days), domain.RiskWindowDays)
}

// OpenWeather API response types.

type condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type mainBlock struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
}

type windBlock struct {
	Speed float64 `json:"speed"`
}

type currentResponse struct {
	Main    mainBlock   `json:"main"`
	Wind    windBlock   `json:"wind"`
	Weather []condition `json:"weather"`
}

type forecastResponse struct {
	List []forecastSlice `json:"list"`
}

type forecastSlice struct {
	DtTxt   string      `json:"dt_txt"`
	Main    mainBlock   `json:"main"`
	Wind    windBlock   `json:"wind"`
	Weather []condition `json:"weather"`
	// Pop is the probability of precipitation as a 0-1 fraction.
	Pop float64 `json:"pop"`
}

// toDay treats the midday temperature as the day's maximum.
func (s forecastSlice) toDay(date time.Time) domain.ForecastDay {
	return domain.ForecastDay{
		Date:                        date,
		TemperatureMaxC:             s.Main.Temp,
		HumidityPct:                 s.Main.Humidity,
		WindSpeedMs:                 s.Wind.Speed,
		PrecipitationProbabilityPct: s.Pop * 100,
		IsRainCondition:             len(s.Weather) > 0 && s.Weather[0].Main == rainGroup,
	}
}

type airResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			PM25 float64 `json:"pm2_5"`
		} `json:"components"`
	} `json:"list"`
}
