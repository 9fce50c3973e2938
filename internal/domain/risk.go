package domain

// RiskThresholds are the per-day rules and the day count needed to raise a risk.
type RiskThresholds struct {
	FireMinTempC          float64 `yaml:"fire_min_temp_c"`
	FireMaxHumidityPct    float64 `yaml:"fire_max_humidity_pct"`
	FireMinWindMs         float64 `yaml:"fire_min_wind_ms"`
	FloodMinPrecipProbPct float64 `yaml:"flood_min_precip_prob_pct"`
	MinQualifyingDays     int     `yaml:"min_qualifying_days"`
}

// DefaultRiskThresholds returns the documented defaults:
// fire day when max temp > 30°C, humidity < 20% and wind > 5 m/s;
// flood day when it rains with precipitation probability > 80%;
// a risk is raised when at least 2 days of the window qualify.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{
		FireMinTempC:          30,
		FireMaxHumidityPct:    20,
		FireMinWindMs:         5,
		FloodMinPrecipProbPct: 80,
		MinQualifyingDays:     2,
	}
}

// RiskAssessment is derived per query and never stored.
type RiskAssessment struct {
	FireRisk  bool `json:"fire_risk"`
	FloodRisk bool `json:"flood_risk"`
	FireDays  int  `json:"fire_days"`
	FloodDays int  `json:"flood_days"`
}

// RiskBanner is the single banner shown for an assessment.
type RiskBanner string

const (
	BannerFire  RiskBanner = "fire"
	BannerFlood RiskBanner = "flood"
	BannerNone  RiskBanner = "none"
)

// Banner picks one banner. Fire wins when both risks are raised.
func (a RiskAssessment) Banner() RiskBanner {
	switch {
	case a.FireRisk:
		return BannerFire
	case a.FloodRisk:
		return BannerFlood
	default:
		return BannerNone
	}
}

// Message is the user-facing text for the banner.
func (a RiskAssessment) Message() string {
	switch a.Banner() {
	case BannerFire:
		return "Elevated fire risk detected in the next 3 days."
	case BannerFlood:
		return "Potential flood risk detected in the next 3 days."
	default:
		return "No immediate high-risk weather patterns detected in the 3-day forecast."
	}
}

// Assess counts fire and flood days across the window and applies the
// qualifying-day threshold to each independently.
func Assess(days []ForecastDay, th RiskThresholds) RiskAssessment {
	var a RiskAssessment
	for _, d := range days {
		if isFireDay(d, th) {
			a.FireDays++
		}
		if isFloodDay(d, th) {
			a.FloodDays++
		}
	}
	a.FireRisk = a.FireDays >= th.MinQualifyingDays
	a.FloodRisk = a.FloodDays >= th.MinQualifyingDays
	return a
}

func isFireDay(d ForecastDay, th RiskThresholds) bool {
	return d.TemperatureMaxC > th.FireMinTempC &&
		d.HumidityPct < th.FireMaxHumidityPct &&
		d.WindSpeedMs > th.FireMinWindMs
}

func isFloodDay(d ForecastDay, th RiskThresholds) bool {
	return d.IsRainCondition && d.PrecipitationProbabilityPct > th.FloodMinPrecipProbPct
}

// NewRiskReport assesses a forecast and packages it for display.
func NewRiskReport(f Forecast, th RiskThresholds) RiskReport {
	a := Assess(f.Days, th)
	return RiskReport{
		Assessment: a,
		Banner:     a.Banner(),
		Message:    a.Message(),
		Forecast:   f,
	}
}
