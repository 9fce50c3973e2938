// Package usgs reads the USGS earthquake summary GeoJSON feed.
package usgs

import (
	"context"
	"fmt"
	"sort"

	"github.com/couchcryptid/hazard-risk-service/internal/adapter/upstream"
	"github.com/couchcryptid/hazard-risk-service/internal/domain"
)

const (
	// TopN is how many of the strongest quakes the feed contributes.
	TopN     = 5
	category = "Earthquakes"
)

// Client implements domain.HazardFeed for the seismic feed.
type Client struct {
	http    *upstream.Client
	feedURL string
}

// NewClient creates a feed reader. feedURL is absolute, e.g. the
// all_day.geojson summary.
func NewClient(http *upstream.Client, feedURL string) *Client {
	return &Client{http: http, feedURL: feedURL}
}

func (c *Client) Name() string { return c.http.Name() }

// Events returns the TopN features by magnitude, strongest first. Features
// without a magnitude or with an out-of-range coordinate are skipped.
func (c *Client) Events(ctx context.Context) ([]domain.GlobalHazardEvent, error) {
	var resp featureCollection
	if err := c.http.GetJSON(ctx, c.feedURL, nil, &resp); err != nil {
		return nil, err
	}

	events := make([]domain.GlobalHazardEvent, 0, len(resp.Features))
	for _, f := range resp.Features {
		if e, ok := f.toEvent(); ok {
			events = append(events, e)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Magnitude > events[j].Magnitude
	})
	if len(events) > TopN {
		events = events[:TopN]
	}
	return events, nil
}

// USGS GeoJSON response types.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties struct {
		Mag   *float64 `json:"mag"`
		Place string   `json:"place"`
	} `json:"properties"`
	Geometry struct {
		// Coordinates are [lon, lat, depth].
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

func (f feature) toEvent() (domain.GlobalHazardEvent, bool) {
	if f.Properties.Mag == nil || len(f.Geometry.Coordinates) < 2 {
		return domain.GlobalHazardEvent{}, false
	}
	coord := domain.Coordinate{Lat: f.Geometry.Coordinates[1], Lon: f.Geometry.Coordinates[0]}
	if !coord.Valid() {
		return domain.GlobalHazardEvent{}, false
	}
	mag := *f.Properties.Mag
	return domain.GlobalHazardEvent{
		Title:      fmt.Sprintf("[Mag %.1f] %s", mag, f.Properties.Place),
		Category:   category,
		Feed:       domain.FeedSeismic,
		Coordinate: coord,
		Magnitude:  mag,
	}, true
}
