package domain

// weatherCodes maps WMO weather interpretation codes to descriptions.
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// WeatherCodeDescription returns the description for a WMO code,
// or "Unknown conditions" for codes outside the table.
func WeatherCodeDescription(code int) string {
	if d, ok := weatherCodes[code]; ok {
		return d
	}
	return "Unknown conditions"
}

// IsRainCode reports whether a WMO code is rain or rain showers (61-67, 80-82).
// Drizzle, snow and thunderstorm families are excluded.
func IsRainCode(code int) bool {
	return (code >= 61 && code <= 67) || (code >= 80 && code <= 82)
}

// KmhToMs converts kilometres per hour to metres per second.
func KmhToMs(kmh float64) float64 {
	return kmh / 3.6
}
