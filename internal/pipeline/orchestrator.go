package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/hazard-risk-service/internal/domain"
	"github.com/couchcryptid/hazard-risk-service/internal/observability"
)

// ResultSink receives every completed, non-superseded query result.
type ResultSink interface {
	PublishResult(ctx context.Context, result domain.QueryResult) error
}

// EventSource supplies the current global event snapshot.
type EventSource interface {
	Snapshot() domain.EventSnapshot
}

// ProximityOptions control how cached events are matched to a query.
type ProximityOptions struct {
	RadiusKm float64
	Policy   domain.ProximityPolicy
}

// Orchestrator fans one query out to every category and collects the results.
type Orchestrator struct {
	resolver   domain.Resolver
	weather    *WeatherAdapter
	forecast   *ForecastAdapter
	airQuality *AirQualityAdapter
	alerts     *AlertsAdapter
	events     EventSource
	proximity  ProximityOptions
	thresholds domain.RiskThresholds
	sink       ResultSink
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Adapters groups the per-category fetchers used by an Orchestrator.
type Adapters struct {
	Weather    *WeatherAdapter
	Forecast   *ForecastAdapter
	AirQuality *AirQualityAdapter
	Alerts     *AlertsAdapter
}

// NewOrchestrator creates an Orchestrator. metrics may be nil.
func NewOrchestrator(resolver domain.Resolver, adapters Adapters, events EventSource, proximity ProximityOptions, thresholds domain.RiskThresholds, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		resolver:   resolver,
		weather:    adapters.Weather,
		forecast:   adapters.Forecast,
		airQuality: adapters.AirQuality,
		alerts:     adapters.Alerts,
		events:     events,
		proximity:  proximity,
		thresholds: thresholds,
		logger:     logger,
		metrics:    metrics,
	}
}

// WithSink attaches an optional result sink.
func (o *Orchestrator) WithSink(s ResultSink) *Orchestrator {
	o.sink = s
	return o
}

// Resolve geocodes free text. It is the only step whose failure aborts a query.
func (o *Orchestrator) Resolve(ctx context.Context, text string) (domain.LocationQuery, error) {
	return o.resolver.Resolve(ctx, text)
}

// Search resolves text and runs the query.
func (o *Orchestrator) Search(ctx context.Context, text string) (domain.QueryResult, error) {
	loc, err := o.Resolve(ctx, text)
	if err != nil {
		return domain.QueryResult{}, err
	}
	return o.Query(ctx, loc), nil
}

// SearchInSession is Search scoped to a session: it cancels the session's
// previous query and returns ErrSuperseded if a newer one starts first.
func (o *Orchestrator) SearchInSession(ctx context.Context, s *Session, text string) (domain.QueryResult, error) {
	ctx, seq, cancel := s.Begin(ctx)
	defer cancel()

	loc, err := o.Resolve(ctx, text)
	if !s.Current(seq) {
		return domain.QueryResult{}, o.superseded(seq)
	}
	if err != nil {
		return domain.QueryResult{}, err
	}
	return o.finishInSession(ctx, s, seq, loc)
}

// QueryInSession is Query scoped to a session.
func (o *Orchestrator) QueryInSession(ctx context.Context, s *Session, loc domain.LocationQuery) (domain.QueryResult, error) {
	ctx, seq, cancel := s.Begin(ctx)
	defer cancel()
	return o.finishInSession(ctx, s, seq, loc)
}

func (o *Orchestrator) finishInSession(ctx context.Context, s *Session, seq uint64, loc domain.LocationQuery) (domain.QueryResult, error) {
	result := o.run(ctx, loc)
	result.Sequence = seq
	if !s.Current(seq) {
		return domain.QueryResult{}, o.superseded(seq)
	}
	o.publish(ctx, result)
	return result, nil
}

func (o *Orchestrator) superseded(seq uint64) error {
	if o.metrics != nil {
		o.metrics.QueriesSuperseded.Inc()
	}
	o.logger.Debug("discarding superseded query", "sequence", seq)
	return fmt.Errorf("query %d: %w", seq, domain.ErrSuperseded)
}

// Query runs every category for loc concurrently. Each category writes its
// own slot, so a failure in one never affects another.
func (o *Orchestrator) Query(ctx context.Context, loc domain.LocationQuery) domain.QueryResult {
	result := o.run(ctx, loc)
	o.publish(ctx, result)
	return result
}

func (o *Orchestrator) run(ctx context.Context, loc domain.LocationQuery) domain.QueryResult {
	start := time.Now()
	c := loc.Coordinate
	result := domain.QueryResult{Location: loc}

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		result.Weather = o.weather.Fetch(ctx, c)
	}()
	go func() {
		defer wg.Done()
		forecast := o.forecast.Fetch(ctx, c)
		result.Risk = domain.Map(forecast, func(f domain.Forecast) domain.RiskReport {
			return domain.NewRiskReport(f, o.thresholds)
		})
	}()
	go func() {
		defer wg.Done()
		result.AirQuality = o.airQuality.Fetch(ctx, c)
	}()
	go func() {
		defer wg.Done()
		result.Alert = o.alerts.Fetch(ctx, c)
	}()
	go func() {
		defer wg.Done()
		result.Proximity = o.checkProximity(c)
	}()
	wg.Wait()

	result.CompletedAt = domain.Now().UTC()
	o.observe(start, result)
	o.logger.Info("query completed",
		"location", loc.DisplayName,
		"coordinate", c.String(),
		"weather", result.Weather.Status,
		"risk", result.Risk.Status,
		"air_quality", result.AirQuality.Status,
		"alert", result.Alert.Status,
		"proximity", result.Proximity.Status,
		"duration", time.Since(start),
	)
	return result
}

func (o *Orchestrator) checkProximity(c domain.Coordinate) domain.Result[domain.ProximityAlert] {
	alert, ok := domain.Nearest(c, o.events.Snapshot().All(), o.proximity.RadiusKm, o.proximity.Policy)
	if !ok {
		return domain.None[domain.ProximityAlert](fmt.Sprintf("No reported hazard events within %.0f km.", o.proximity.RadiusKm))
	}
	if o.metrics != nil {
		o.metrics.ProximityAlerts.Inc()
	}
	r := domain.OK(alert)
	r.Message = alert.Message()
	return r
}

func (o *Orchestrator) publish(ctx context.Context, result domain.QueryResult) {
	if o.sink == nil {
		return
	}
	if err := o.sink.PublishResult(ctx, result); err != nil {
		o.logger.Error("publish query result failed", "error", err, "location", result.Location.DisplayName)
	}
}

func (o *Orchestrator) observe(start time.Time, r domain.QueryResult) {
	if o.metrics == nil {
		return
	}
	o.metrics.Queries.Inc()
	o.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	for category, status := range map[string]domain.Status{
		CategoryWeather:    r.Weather.Status,
		CategoryRisk:       r.Risk.Status,
		CategoryAirQuality: r.AirQuality.Status,
		CategoryAlert:      r.Alert.Status,
		CategoryProximity:  r.Proximity.Status,
	} {
		o.metrics.CategoryOutcomes.WithLabelValues(category, string(status)).Inc()
	}
}
