// Package ratelimit enforces a minimum interval between calls to an external
// provider whose quota is shared, e.g. Nominatim's one request per second.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Gate blocks until the caller may issue its next request.
type Gate interface {
	Wait(ctx context.Context) error
}

// IntervalGate admits at most one caller per interval within this process.
// A caller only waits when the previous admission was less than one interval
// ago; an idle gate admits immediately.
type IntervalGate struct {
	interval time.Duration
	clock    clockwork.Clock

	mu   sync.Mutex
	last time.Time
}

// NewIntervalGate creates a gate. A nil clock uses real time.
func NewIntervalGate(interval time.Duration, clock clockwork.Clock) *IntervalGate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &IntervalGate{interval: interval, clock: clock}
}

// Wait reserves the next free slot and sleeps until it starts. A caller
// cancelled while waiting releases its slot if no later caller has
// reserved behind it.
func (g *IntervalGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	now := g.clock.Now()
	prev := g.last
	next := prev.Add(g.interval)
	if prev.IsZero() || !now.Before(next) {
		g.last = now
		g.mu.Unlock()
		return nil
	}
	g.last = next
	g.mu.Unlock()

	select {
	case <-ctx.Done():
		g.mu.Lock()
		if g.last.Equal(next) {
			g.last = prev
		}
		g.mu.Unlock()
		return ctx.Err()
	case <-g.clock.After(next.Sub(now)):
		return nil
	}
}
