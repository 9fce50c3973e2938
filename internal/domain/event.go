package domain

import (
	"fmt"
	"time"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies inside [-90,90] x [-180,180].
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// LocationQuery is a resolved place: the provider's display name plus coordinates.
type LocationQuery struct {
	DisplayName string     `json:"display_name"`
	Coordinate  Coordinate `json:"coordinate"`
}

// Source identifies which provider of a primary/fallback pair answered.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// WeatherReading is a normalized current-conditions observation.
// Wind is always metres per second regardless of provider.
type WeatherReading struct {
	TemperatureC float64 `json:"temperature_c"`
	WindSpeedMs  float64 `json:"wind_speed_ms"`
	HumidityPct  float64 `json:"humidity_pct"`
	Condition    string  `json:"condition"`
	Source       Source  `json:"source"`
	Provider     string  `json:"provider"`
}

// ForecastDay is one normalized day of the risk window.
type ForecastDay struct {
	Date                        time.Time `json:"date"`
	TemperatureMaxC             float64   `json:"temperature_max_c"`
	HumidityPct                 float64   `json:"humidity_pct"`
	WindSpeedMs                 float64   `json:"wind_speed_ms"`
	PrecipitationProbabilityPct float64   `json:"precipitation_probability_pct"`
	IsRainCondition             bool      `json:"is_rain_condition"`
}

// Forecast is the risk window (the next RiskWindowDays days, tomorrow first)
// tagged with the provider that produced it.
type Forecast struct {
	Days     []ForecastDay `json:"days"`
	Source   Source        `json:"source"`
	Provider string        `json:"provider"`
}

// RiskWindowDays is the number of days after today that risk is evaluated over.
const RiskWindowDays = 3

// AirQualityReading is the provider's 1-5 AQI level plus fine particulate matter.
type AirQualityReading struct {
	AQILevel int     `json:"aqi_level"`
	PM25     float64 `json:"pm2_5"`
}

var aqiLabels = map[int]string{
	1: "Good",
	2: "Fair",
	3: "Moderate",
	4: "Poor",
	5: "Very Poor",
}

// Label maps the AQI level to its name, or "Unknown" outside 1-5.
func (r AirQualityReading) Label() string {
	if l, ok := aqiLabels[r.AQILevel]; ok {
		return l
	}
	return "Unknown"
}

// AlertEvent is the single regional alert surfaced for a query.
type AlertEvent struct {
	Event    string `json:"event"`
	Headline string `json:"headline"`
}

// Feed names for GlobalHazardEvent.Feed.
const (
	FeedSeismic = "seismic"
	FeedHazards = "hazards"
)

// GlobalHazardEvent is a worldwide seismic or wildfire/volcanic occurrence.
type GlobalHazardEvent struct {
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Feed       string     `json:"feed"`
	Coordinate Coordinate `json:"coordinate"`
	Magnitude  float64    `json:"magnitude,omitempty"`
}

// ProximityAlert reports a cached hazard event inside the alert radius.
type ProximityAlert struct {
	Event      GlobalHazardEvent `json:"event"`
	DistanceKm float64           `json:"distance_km"`
}

// Message renders the alert the way it is shown to users.
func (p ProximityAlert) Message() string {
	return fmt.Sprintf("A [%s] has been reported %.0f km from your location.", p.Event.Title, p.DistanceKm)
}

// EventSnapshot is one complete refresh of the global event feeds. A new
// snapshot replaces the previous one wholesale.
type EventSnapshot struct {
	Seismic     []GlobalHazardEvent `json:"seismic"`
	Hazards     []GlobalHazardEvent `json:"hazards"`
	RefreshedAt time.Time           `json:"refreshed_at"`
}

// All returns hazard events followed by seismic events. This is the order
// the first-match proximity policy scans.
func (s EventSnapshot) All() []GlobalHazardEvent {
	all := make([]GlobalHazardEvent, 0, len(s.Seismic)+len(s.Hazards))
	all = append(all, s.Hazards...)
	return append(all, s.Seismic...)
}
