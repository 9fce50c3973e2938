package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/hazard-risk-service/internal/domain"
	"github.com/couchcryptid/hazard-risk-service/internal/pipeline"
)

// SessionHeader carries the client-chosen session ID. Queries sharing an ID
// supersede each other.
const SessionHeader = "X-Session-ID"

// Querier runs hazard queries within a session.
type Querier interface {
	SearchInSession(ctx context.Context, s *pipeline.Session, text string) (domain.QueryResult, error)
	QueryInSession(ctx context.Context, s *pipeline.Session, loc domain.LocationQuery) (domain.QueryResult, error)
}

// EventSource supplies the cached global event snapshot.
type EventSource interface {
	Snapshot() domain.EventSnapshot
}

// Server exposes the query API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	queries    Querier
	events     EventSource
	sessions   *pipeline.Sessions
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/risk, /v1/events, /healthz,
// /readyz, and /metrics routes.
func NewServer(addr string, queries Querier, events EventSource, sessions *pipeline.Sessions, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 45 * time.Second, // geocode plus primary and fallback back to back
			IdleTimeout:  60 * time.Second,
		},
		queries:  queries,
		events:   events,
		sessions: sessions,
		logger:   logger,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/risk", s.handleRisk)
		r.Get("/events", s.handleEvents)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleRisk serves GET /v1/risk?q=<place> or ?lat=&lon=[&name=].
func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	session := s.session(r)

	var (
		result domain.QueryResult
		err    error
	)
	if text := strings.TrimSpace(q.Get("q")); text != "" {
		result, err = s.queries.SearchInSession(r.Context(), session, text)
	} else {
		loc, perr := parseLocation(q)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		result, err = s.queries.QueryInSession(r.Context(), session, loc)
	}

	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.events.Snapshot())
}

// session returns the caller's session, or a throwaway one when the request
// carries no session header.
func (s *Server) session(r *http.Request) *pipeline.Session {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		return &pipeline.Session{}
	}
	return s.sessions.Get(id)
}

func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSuperseded):
		writeError(w, http.StatusConflict, "query superseded by a newer request in this session")
	case errors.Is(err, domain.ErrTransient):
		s.logger.Warn("location lookup failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusBadGateway, "location service unavailable, try again shortly")
	default:
		s.logger.Error("query failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseLocation(q url.Values) (domain.LocationQuery, error) {
	latText, lonText := q.Get("lat"), q.Get("lon")
	if latText == "" || lonText == "" {
		return domain.LocationQuery{}, errors.New("provide q=<place> or both lat and lon")
	}
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return domain.LocationQuery{}, fmt.Errorf("invalid lat %q", latText)
	}
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil {
		return domain.LocationQuery{}, fmt.Errorf("invalid lon %q", lonText)
	}
	c := domain.Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return domain.LocationQuery{}, fmt.Errorf("coordinate %s out of range", c)
	}

	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		name = c.String()
	}
	return domain.LocationQuery{DisplayName: name, Coordinate: c}, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
