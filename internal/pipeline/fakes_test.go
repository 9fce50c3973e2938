package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hazard-risk-service/internal/domain"
	"github.com/couchcryptid/hazard-risk-service/internal/observability"
	"github.com/couchcryptid/hazard-risk-service/internal/pipeline"
)

var (
	errUpstream = domain.Transient("fake", errors.New("status 500"))
	paris       = domain.LocationQuery{DisplayName: "Paris, France", Coordinate: domain.Coordinate{Lat: 48.8566, Lon: 2.3522}}
)

// --- fakes ---

type fakeWeather struct {
	name    string
	reading domain.WeatherReading
	err     error
	calls   atomic.Int32
}

func (f *fakeWeather) Name() string { return f.name }

func (f *fakeWeather) CurrentWeather(context.Context, domain.Coordinate) (domain.WeatherReading, error) {
	f.calls.Add(1)
	return f.reading, f.err
}

type fakeForecast struct {
	name     string
	forecast domain.Forecast
	err      error
	calls    atomic.Int32
}

func (f *fakeForecast) Name() string { return f.name }

func (f *fakeForecast) Forecast(context.Context, domain.Coordinate) (domain.Forecast, error) {
	f.calls.Add(1)
	return f.forecast, f.err
}

type fakeAir struct {
	reading domain.AirQualityReading
	err     error
}

func (f *fakeAir) AirQuality(context.Context, domain.Coordinate) (domain.AirQualityReading, error) {
	return f.reading, f.err
}

type fakeAlerts struct {
	alerts []domain.AlertEvent
	err    error
}

func (f *fakeAlerts) Alerts(context.Context, domain.Coordinate) ([]domain.AlertEvent, error) {
	return f.alerts, f.err
}

type fakeFeed struct {
	name   string
	events []domain.GlobalHazardEvent
	err    error
	calls  atomic.Int32
}

func (f *fakeFeed) Name() string { return f.name }

func (f *fakeFeed) Events(context.Context) ([]domain.GlobalHazardEvent, error) {
	f.calls.Add(1)
	return f.events, f.err
}

type fakeResolver struct {
	loc   domain.LocationQuery
	err   error
	calls atomic.Int32
}

func (f *fakeResolver) Resolve(context.Context, string) (domain.LocationQuery, error) {
	f.calls.Add(1)
	return f.loc, f.err
}

// gatedWeather signals started on its first call and then holds until
// release is closed or the query is cancelled.
type gatedWeather struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedWeather) Name() string { return "gated" }

func (g *gatedWeather) CurrentWeather(ctx context.Context, _ domain.Coordinate) (domain.WeatherReading, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return domain.WeatherReading{TemperatureC: 18, Source: domain.SourcePrimary}, nil
	case <-ctx.Done():
		return domain.WeatherReading{}, domain.Transient("gated", ctx.Err())
	}
}

// rendezvousProvider serves every category, and each call waits until all
// expected calls are in flight at once. Serial execution fails the wait.
type rendezvousProvider struct {
	arrived sync.WaitGroup
	all     chan struct{}
}

func newRendezvousProvider(calls int) *rendezvousProvider {
	p := &rendezvousProvider{all: make(chan struct{})}
	p.arrived.Add(calls)
	go func() {
		p.arrived.Wait()
		close(p.all)
	}()
	return p
}

func (p *rendezvousProvider) meet() error {
	p.arrived.Done()
	select {
	case <-p.all:
		return nil
	case <-time.After(time.Second):
		return errors.New("other categories never started")
	}
}

func (p *rendezvousProvider) Name() string { return "rendezvous" }

func (p *rendezvousProvider) CurrentWeather(context.Context, domain.Coordinate) (domain.WeatherReading, error) {
	return domain.WeatherReading{TemperatureC: 21, Source: domain.SourcePrimary}, p.meet()
}

func (p *rendezvousProvider) Forecast(context.Context, domain.Coordinate) (domain.Forecast, error) {
	return hotDryDays(), p.meet()
}

func (p *rendezvousProvider) AirQuality(context.Context, domain.Coordinate) (domain.AirQualityReading, error) {
	return domain.AirQualityReading{AQILevel: 1}, p.meet()
}

func (p *rendezvousProvider) Alerts(context.Context, domain.Coordinate) ([]domain.AlertEvent, error) {
	return []domain.AlertEvent{{Event: "Heat Advisory", Headline: "Heat Advisory until 8 PM"}}, p.meet()
}

type staticEvents struct {
	snap domain.EventSnapshot
}

func (s staticEvents) Snapshot() domain.EventSnapshot { return s.snap }

type recordingSink struct {
	results chan domain.QueryResult
}

func (s *recordingSink) PublishResult(_ context.Context, r domain.QueryResult) error {
	s.results <- r
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func hotDryDays() domain.Forecast {
	day := domain.ForecastDay{TemperatureMaxC: 35, HumidityPct: 10, WindSpeedMs: 6}
	return domain.Forecast{Days: []domain.ForecastDay{day, day, day}, Source: domain.SourcePrimary, Provider: "primary"}
}

func healthyAdapters(metrics *observability.Metrics) pipeline.Adapters {
	logger := slog.Default()
	return pipeline.Adapters{
		Weather: pipeline.NewWeatherAdapter(
			&fakeWeather{name: "primary", reading: domain.WeatherReading{TemperatureC: 21, Source: domain.SourcePrimary}},
			&fakeWeather{name: "fallback"},
			logger, metrics),
		Forecast: pipeline.NewForecastAdapter(
			&fakeForecast{name: "primary", forecast: hotDryDays()},
			&fakeForecast{name: "fallback"},
			logger, metrics),
		AirQuality: pipeline.NewAirQualityAdapter(&fakeAir{reading: domain.AirQualityReading{AQILevel: 2, PM25: 8}}, logger),
		Alerts:     pipeline.NewAlertsAdapter(&fakeAlerts{}, logger),
	}
}
