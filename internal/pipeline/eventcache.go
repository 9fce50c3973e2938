package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hazard-risk-service/internal/domain"
	"github.com/couchcryptid/hazard-risk-service/internal/observability"
)

// SnapshotPublisher receives every completed snapshot.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap domain.EventSnapshot) error
}

// EventCache holds the latest global hazard snapshot. Readers never observe a
// partially refreshed set: each refresh builds a new snapshot and swaps the
// pointer.
type EventCache struct {
	seismic   domain.HazardFeed
	hazards   domain.HazardFeed
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	publisher SnapshotPublisher

	snap  atomic.Pointer[domain.EventSnapshot]
	ready atomic.Bool
}

// NewEventCache creates an empty cache. A nil clock uses real time.
func NewEventCache(seismic, hazards domain.HazardFeed, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *EventCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	c := &EventCache{
		seismic:  seismic,
		hazards:  hazards,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
	c.snap.Store(&domain.EventSnapshot{
		Seismic: []domain.GlobalHazardEvent{},
		Hazards: []domain.GlobalHazardEvent{},
	})
	return c
}

// WithPublisher attaches an optional sink for completed snapshots.
func (c *EventCache) WithPublisher(p SnapshotPublisher) *EventCache {
	c.publisher = p
	return c
}

// Snapshot returns the current snapshot. It is empty until the first refresh.
func (c *EventCache) Snapshot() domain.EventSnapshot {
	return *c.snap.Load()
}

// CheckReadiness returns nil once the first refresh has completed.
func (c *EventCache) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("global event cache has not refreshed yet")
	}
	return nil
}

// Run refreshes immediately and then every interval until ctx is cancelled.
func (c *EventCache) Run(ctx context.Context) error {
	c.logger.Info("event cache started", "interval", c.interval)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	c.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("event cache stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			c.Refresh(ctx)
		}
	}
}

// Refresh fetches both feeds concurrently and swaps in the combined snapshot.
// A failing feed contributes zero events for this cycle.
func (c *EventCache) Refresh(ctx context.Context) domain.EventSnapshot {
	start := time.Now()

	var (
		wg      sync.WaitGroup
		seismic []domain.GlobalHazardEvent
		hazards []domain.GlobalHazardEvent
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		seismic = c.fetch(ctx, domain.FeedSeismic, c.seismic)
	}()
	go func() {
		defer wg.Done()
		hazards = c.fetch(ctx, domain.FeedHazards, c.hazards)
	}()
	wg.Wait()

	snap := &domain.EventSnapshot{
		Seismic:     seismic,
		Hazards:     hazards,
		RefreshedAt: c.clock.Now().UTC(),
	}
	c.snap.Store(snap)
	c.ready.Store(true)

	if c.metrics != nil {
		c.metrics.EventRefreshDuration.Observe(time.Since(start).Seconds())
		c.metrics.CachedEvents.WithLabelValues(domain.FeedSeismic).Set(float64(len(seismic)))
		c.metrics.CachedEvents.WithLabelValues(domain.FeedHazards).Set(float64(len(hazards)))
	}
	c.logger.Info("event cache refreshed", "seismic", len(seismic), "hazards", len(hazards))

	if c.publisher != nil {
		if err := c.publisher.PublishSnapshot(ctx, *snap); err != nil {
			c.logger.Error("publish event snapshot failed", "error", err)
		}
	}
	return *snap
}

func (c *EventCache) fetch(ctx context.Context, feed string, src domain.HazardFeed) []domain.GlobalHazardEvent {
	events, err := src.Events(ctx)
	if err != nil {
		c.logger.Warn("event feed refresh failed", "feed", feed, "source", src.Name(), "error", err)
		c.countRefresh(feed, "error")
		return []domain.GlobalHazardEvent{}
	}

	valid := make([]domain.GlobalHazardEvent, 0, len(events))
	for _, e := range events {
		if !e.Coordinate.Valid() {
			c.logger.Debug("dropping event with invalid coordinate", "feed", feed, "title", e.Title)
			continue
		}
		e.Feed = feed
		valid = append(valid, e)
	}
	c.countRefresh(feed, "success")
	return valid
}

func (c *EventCache) countRefresh(feed, outcome string) {
	if c.metrics != nil {
		c.metrics.EventRefreshes.WithLabelValues(feed, outcome).Inc()
	}
}
