// Package eonet reads open wildfire and volcano events from NASA EONET v3.
package eonet

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/couchcryptid/hazard-risk-service/internal/adapter/upstream"
	"github.com/couchcryptid/hazard-risk-service/internal/domain"
)

const (
	eventsPath = "/api/v3/events"
	// Limit caps how many open events the feed contributes.
	Limit = 10
	// Categories are the EONET category ids requested.
	Categories = "wildfires,volcanoes"

	defaultCategory = "Natural Event"
	pointGeometry   = "Point"
)

// Client implements domain.HazardFeed for the wildfire and volcano feed.
type Client struct {
	http *upstream.Client
}

func NewClient(http *upstream.Client) *Client {
	return &Client{http: http}
}

func (c *Client) Name() string { return c.http.Name() }

// Events returns open events in feed order. Events without a usable point
// geometry are skipped.
func (c *Client) Events(ctx context.Context) ([]domain.GlobalHazardEvent, error) {
	params := map[string]string{
		"limit":      strconv.Itoa(Limit),
		"status":     "open",
		"categories": Categories,
	}

	var resp eventsResponse
	if err := c.http.GetJSON(ctx, eventsPath, params, &resp); err != nil {
		return nil, err
	}

	events := make([]domain.GlobalHazardEvent, 0, len(resp.Events))
	for _, e := range resp.Events {
		coord, ok := e.point()
		if !ok {
			continue
		}
		cat := e.category()
		events = append(events, domain.GlobalHazardEvent{
			Title:      fmt.Sprintf("[%s] %s", cat, e.Title),
			Category:   cat,
			Feed:       domain.FeedHazards,
			Coordinate: coord,
		})
		if len(events) == Limit {
			break
		}
	}
	return events, nil
}

// EONET API response types.

type eventsResponse struct {
	Events []event `json:"events"`
}

type event struct {
	Title      string `json:"title"`
	Categories []struct {
		Title string `json:"title"`
	} `json:"categories"`
	Geometry []geometry `json:"geometry"`
}

// geometry coordinates are [lon, lat] for points and nested rings for
// polygons, so they are decoded lazily by type.
type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func (e event) category() string {
	if len(e.Categories) == 0 || e.Categories[0].Title == "" {
		return defaultCategory
	}
	return e.Categories[0].Title
}

// point returns the first valid Point geometry.
func (e event) point() (domain.Coordinate, bool) {
	for _, g := range e.Geometry {
		if g.Type != pointGeometry {
			continue
		}
		var lonLat []float64
		if err := json.Unmarshal(g.Coordinates, &lonLat); err != nil || len(lonLat) < 2 {
			continue
		}
		c := domain.Coordinate{Lat: lonLat[1], Lon: lonLat[0]}
		if c.Valid() {
			return c, true
		}
	}
	return domain.Coordinate{}, false
}
