package nominatim

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/couchcryptid/hazard-risk-service/internal/adapter/upstream"
	"github.com/couchcryptid/hazard-risk-service/internal/domain"
	"github.com/couchcryptid/hazard-risk-service/internal/observability"
	"github.com/couchcryptid/hazard-risk-service/internal/ratelimit"
)

// Client implements domain.Resolver using the Nominatim search API.
// Every upstream request first waits on the rate gate.
type Client struct {
	http    *upstream.Client
	gate    ratelimit.Gate
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a Nominatim geocoding client. metrics may be nil.
func NewClient(http *upstream.Client, gate ratelimit.Gate, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{http: http, gate: gate, metrics: metrics, logger: logger}
}

// Resolve converts free text to the first (highest-ranked) match.
func (c *Client) Resolve(ctx context.Context, text string) (domain.LocationQuery, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.LocationQuery{}, &domain.LocationNotFoundError{Query: text}
	}

	if err := c.gate.Wait(ctx); err != nil {
		return domain.LocationQuery{}, domain.Transient("nominatim", fmt.Errorf("rate gate: %w", err))
	}

	params := map[string]string{
		"q":      text,
		"format": "json",
		"limit":  "1",
	}

	var places []place
	if err := c.http.GetJSON(ctx, "/search", params, &places); err != nil {
		c.count("error")
		return domain.LocationQuery{}, err
	}

	if len(places) == 0 {
		c.count("not_found")
		return domain.LocationQuery{}, &domain.LocationNotFoundError{Query: text}
	}

	loc, err := places[0].toLocation()
	if err != nil {
		c.count("error")
		return domain.LocationQuery{}, domain.Transient("nominatim", err)
	}

	c.count("success")
	c.logger.Debug("location resolved", "query", text, "display_name", loc.DisplayName,
		"lat", loc.Coordinate.Lat, "lon", loc.Coordinate.Lon)
	return loc, nil
}

func (c *Client) count(outcome string) {
	if c.metrics != nil {
		c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	}
}

// Nominatim API response types. Coordinates arrive as strings.

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (p place) toLocation() (domain.LocationQuery, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return domain.LocationQuery{}, fmt.Errorf("parse lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return domain.LocationQuery{}, fmt.Errorf("parse lon %q: %w", p.Lon, err)
	}
	c := domain.Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return domain.LocationQuery{}, fmt.Errorf("coordinate out of range: %s", c)
	}
	return domain.LocationQuery{DisplayName: p.DisplayName, Coordinate: c}, nil
}
