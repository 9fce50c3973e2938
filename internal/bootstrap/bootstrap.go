// Package bootstrap wires configuration into a ready-to-run hazard query
// stack. Both the service and the CLI build on it.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/hazard-risk-service/internal/adapter/eonet"
	kafkaadapter "github.com/couchcryptid/hazard-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-risk-service/internal/adapter/nominatim"
	"github.com/couchcryptid/hazard-risk-service/internal/adapter/nws"
	"github.com/couchcryptid/hazard-risk-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/hazard-risk-service/internal/adapter/openweather"
	"github.com/couchcryptid/hazard-risk-service/internal/adapter/upstream"
	"github.com/couchcryptid/hazard-risk-service/internal/adapter/usgs"
	"github.com/couchcryptid/hazard-risk-service/internal/config"
	"github.com/couchcryptid/hazard-risk-service/internal/observability"
	"github.com/couchcryptid/hazard-risk-service/internal/pipeline"
	"github.com/couchcryptid/hazard-risk-service/internal/ratelimit"
)

// geocodeGateKey is the Redis key shared by every replica's geocoding gate.
const geocodeGateKey = "hazard:ratelimit:nominatim"

// App is the assembled query stack.
type App struct {
	Orchestrator *pipeline.Orchestrator
	Events       *pipeline.EventCache
	Sessions     *pipeline.Sessions

	logger  *slog.Logger
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// New builds every provider client, the event cache and the orchestrator.
// Optional Redis and Kafka integrations are enabled by configuration; an
// unreachable Redis degrades to the in-process rate gate.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *App {
	app := &App{logger: logger}

	gate := app.geocodeGate(ctx, cfg)
	geocoder := nominatim.NewClient(
		upstream.New("nominatim", cfg.NominatimBaseURL, cfg.ProviderTimeout, metrics).WithUserAgent(cfg.NominatimUserAgent),
		gate, metrics, logger,
	)
	resolver := nominatim.NewCachedResolver(geocoder, cfg.GeocodeCacheSize, metrics)

	owm := openweather.NewClient(upstream.New("openweather", cfg.OpenWeatherBaseURL, cfg.ProviderTimeout, metrics), cfg.OpenWeatherAPIKey)
	meteo := openmeteo.NewClient(upstream.New("openmeteo", cfg.OpenMeteoBaseURL, cfg.ProviderTimeout, metrics))
	alerts := nws.NewClient(upstream.New("nws", cfg.NWSBaseURL, cfg.ProviderTimeout, metrics))

	adapters := pipeline.Adapters{
		Weather:    pipeline.NewWeatherAdapter(owm, meteo, logger, metrics),
		Forecast:   pipeline.NewForecastAdapter(owm, meteo, logger, metrics),
		AirQuality: pipeline.NewAirQualityAdapter(owm, logger),
		Alerts:     pipeline.NewAlertsAdapter(alerts, logger),
	}

	app.Events = pipeline.NewEventCache(
		usgs.NewClient(upstream.New("usgs", "", cfg.ProviderTimeout, metrics), cfg.USGSFeedURL),
		eonet.NewClient(upstream.New("eonet", cfg.EONETBaseURL, cfg.ProviderTimeout, metrics)),
		cfg.EventRefreshInterval, nil, logger, metrics,
	)

	app.Orchestrator = pipeline.NewOrchestrator(
		resolver, adapters, app.Events,
		pipeline.ProximityOptions{RadiusKm: cfg.ProximityRadiusKm, Policy: cfg.ProximityPolicy},
		cfg.RiskThresholds, logger, metrics,
	)
	app.Sessions = pipeline.NewSessions(cfg.SessionCacheSize)

	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		app.Orchestrator.WithSink(writer)
		app.Events.WithPublisher(writer)
		app.closers = append(app.closers, namedCloser{"kafka writer", writer.Close})
		logger.Info("kafka publication enabled",
			"brokers", cfg.KafkaBrokers, "results_topic", cfg.KafkaResultsTopic, "events_topic", cfg.KafkaEventsTopic)
	} else {
		logger.Info("kafka publication disabled")
	}

	if cfg.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY not set; weather and forecast will use the fallback and air quality is unavailable")
	}
	return app
}

// geocodeGate selects the shared Redis gate when configured and reachable.
func (a *App) geocodeGate(ctx context.Context, cfg *config.Config) ratelimit.Gate {
	if cfg.RedisAddr == "" {
		a.logger.Info("geocode rate gate in-process", "interval", cfg.GeocodeMinInterval)
		return ratelimit.NewIntervalGate(cfg.GeocodeMinInterval, nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		a.logger.Warn("redis unreachable, geocode rate gate in-process", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return ratelimit.NewIntervalGate(cfg.GeocodeMinInterval, nil)
	}

	a.closers = append(a.closers, namedCloser{"redis client", client.Close})
	a.logger.Info("geocode rate gate shared via redis", "addr", cfg.RedisAddr, "interval", cfg.GeocodeMinInterval)
	return ratelimit.NewRedisGate(client, geocodeGateKey, cfg.GeocodeMinInterval, nil)
}

// Close releases the optional Redis and Kafka clients.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.close(); err != nil {
			a.logger.Error("close failed", "component", c.name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
