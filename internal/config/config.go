package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/hazard-risk-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// ProviderTimeout bounds every upstream HTTP call.
	ProviderTimeout time.Duration

	// Provider endpoints.
	NominatimBaseURL   string
	NominatimUserAgent string
	OpenWeatherBaseURL string
	OpenWeatherAPIKey  string
	OpenMeteoBaseURL   string
	NWSBaseURL         string
	USGSFeedURL        string
	EONETBaseURL       string

	// Geocoding.
	GeocodeMinInterval time.Duration
	GeocodeCacheSize   int

	// Global event cache and proximity.
	EventRefreshInterval time.Duration
	ProximityRadiusKm    float64
	ProximityPolicy      domain.ProximityPolicy

	RiskThresholds   domain.RiskThresholds
	SessionCacheSize int

	// Kafka publication, disabled when KafkaBrokers is empty.
	KafkaBrokers      []string
	KafkaResultsTopic string
	KafkaEventsTopic  string

	// Redis-backed geocoding quota, disabled when RedisAddr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// KafkaEnabled reports whether results and snapshots are published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	providerTimeout, err := parsePositiveDuration("PROVIDER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocodeInterval, err := parsePositiveDuration("GEOCODE_MIN_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parsePositiveDuration("EVENT_REFRESH_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}

	radius, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("PROXIMITY_RADIUS_KM", "250"), 64)
	if err != nil || radius <= 0 {
		return nil, errors.New("invalid PROXIMITY_RADIUS_KM")
	}

	policy, err := domain.ParseProximityPolicy(sharedcfg.EnvOrDefault("PROXIMITY_POLICY", string(domain.PolicyNearest)))
	if err != nil {
		return nil, fmt.Errorf("invalid PROXIMITY_POLICY: %w", err)
	}

	thresholds, err := loadRiskThresholds(os.Getenv("RISK_THRESHOLDS_FILE"))
	if err != nil {
		return nil, err
	}

	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		ProviderTimeout: providerTimeout,

		NominatimBaseURL:   sharedcfg.EnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "hazard-risk-service/1.0"),
		OpenWeatherBaseURL: sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenMeteoBaseURL:   sharedcfg.EnvOrDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com"),
		NWSBaseURL:         sharedcfg.EnvOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		USGSFeedURL:        sharedcfg.EnvOrDefault("USGS_FEED_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_day.geojson"),
		EONETBaseURL:       sharedcfg.EnvOrDefault("EONET_BASE_URL", "https://eonet.gsfc.nasa.gov"),

		GeocodeMinInterval: geocodeInterval,
		GeocodeCacheSize:   parsePositiveInt("GEOCODE_CACHE_SIZE", 1000),

		EventRefreshInterval: refreshInterval,
		ProximityRadiusKm:    radius,
		ProximityPolicy:      policy,

		RiskThresholds:   thresholds,
		SessionCacheSize: parsePositiveInt("SESSION_CACHE_SIZE", 1000),

		KafkaBrokers:      sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaResultsTopic: sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "hazard-query-results"),
		KafkaEventsTopic:  sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "global-hazard-events"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
	}

	// A missing OPENWEATHER_API_KEY is not fatal: the primary answers 401 and
	// weather and forecast fall back to Open-Meteo.
	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// loadRiskThresholds overlays a YAML file onto the defaults. Keys missing
// from the file keep their default value.
func loadRiskThresholds(path string) (domain.RiskThresholds, error) {
	th := domain.DefaultRiskThresholds()
	if path == "" {
		return th, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return th, fmt.Errorf("read RISK_THRESHOLDS_FILE: %w", err)
	}
	if err := yaml.Unmarshal(data, &th); err != nil {
		return th, fmt.Errorf("parse RISK_THRESHOLDS_FILE: %w", err)
	}
	if th.MinQualifyingDays < 1 || th.MinQualifyingDays > domain.RiskWindowDays {
		return th, fmt.Errorf("invalid RISK_THRESHOLDS_FILE: min_qualifying_days must be between 1 and %d", domain.RiskWindowDays)
	}
	return th, nil
}
