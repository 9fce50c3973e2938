package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/hazard-risk-service/internal/cache"
)

// Session orders the queries issued by one client. Starting a query cancels
// the one before it, and only the latest sequence may deliver a result.
// The zero value is a standalone session numbering its own queries from 1.
type Session struct {
	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	evicted bool

	// counter, when set, is shared by every session of a registry so a
	// recreated session never reuses an earlier sequence.
	counter *atomic.Uint64
}

// Begin starts a new query derived from parent and cancels the previous one.
// The returned cancel func must be called when the query finishes.
func (s *Session) Begin(parent context.Context) (context.Context, uint64, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.counter != nil {
		s.seq = s.counter.Add(1)
	} else {
		s.seq++
	}
	s.cancel = cancel
	if s.evicted {
		cancel()
	}
	return ctx, s.seq, cancel
}

// Current reports whether seq is still the latest query of a live session.
func (s *Session) Current(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.evicted && s.seq == seq
}

// evict retires the session: its in-flight query is cancelled and can no
// longer deliver a result.
func (s *Session) evict() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evicted = true
	if s.cancel != nil {
		s.cancel()
	}
}

// Sessions is a bounded registry of sessions keyed by client-supplied ID.
// The least recently used session is evicted when the registry is full.
type Sessions struct {
	lru *cache.LRU[string, *Session]
	seq atomic.Uint64
}

func NewSessions(maxSessions int) *Sessions {
	r := &Sessions{}
	r.lru = cache.NewLRU[string, *Session](maxSessions).
		OnEvict(func(_ string, s *Session) { s.evict() })
	return r
}

// Get returns the session for id, creating it on first use.
func (r *Sessions) Get(id string) *Session {
	return r.lru.GetOrAdd(id, func() *Session { return &Session{counter: &r.seq} })
}
