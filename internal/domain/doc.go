// Package domain models the hazard risk picture for a single geographic point.
//
// # Data Sources
//
// Current conditions and the 3-day forecast come from OpenWeather (primary)
// with Open-Meteo as fallback. Air quality comes from OpenWeather only.
// Regional alerts come from the US National Weather Service (NWS) and are
// empty outside NWS coverage. Global events come from the USGS earthquake
// summary feed and NASA EONET (wildfires, volcanoes).
//
// # Unit Conventions
//
// All values leaving a provider package are normalized:
//
//	Temperature:  degrees Celsius (both providers are queried in metric)
//	Wind speed:   metres per second
//	              OpenWeather reports m/s; Open-Meteo reports km/h and is
//	              divided by 3.6 (18 km/h -> 5.0 m/s).
//	Humidity:     percent 0-100
//	Precip prob:  percent 0-100
//	              OpenWeather "pop" is a 0-1 fraction and is multiplied by 100.
//
// # Risk Window
//
// The window is the next [RiskWindowDays] days after today (UTC). Today is
// always skipped because it is partial. The two forecast providers index
// tomorrow differently:
//
//	OpenWeather: 3-hourly slices with "dt_txt" timestamps. The 12:00:00 slice
//	             of each day after today stands for that day.
//	Open-Meteo:  daily arrays where index 0 is today, so indices 1..3 are used.
//
// # Risk Rules
//
//	Fire day:  max temp > 30°C AND humidity < 20% AND wind > 5 m/s
//	Flood day: rain condition AND precipitation probability > 80%
//
// A risk is raised when at least 2 days of the window qualify. Only one
// banner is shown; fire wins when both are raised. See [DefaultRiskThresholds].
//
// Rain condition is OpenWeather's "Rain" main group, or for Open-Meteo a WMO
// code in the rain or rain-shower families (see [IsRainCode]).
//
// # Air Quality
//
// OpenWeather AQI levels 1-5 map to Good, Fair, Moderate, Poor, Very Poor.
// Any other value is labelled Unknown.
//
// # Proximity
//
// Distance is haversine over a 6371 km sphere. The alert radius is inclusive
// and distances are rounded to whole kilometres for display.
package domain
