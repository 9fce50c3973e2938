// Package nws fetches active regional alerts from the US National Weather
// Service. Points outside NWS coverage fail the first lookup.
package nws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/hazard-risk-service/internal/adapter/upstream"
	"github.com/couchcryptid/hazard-risk-service/internal/domain"
)

// Client implements domain.AlertProvider.
type Client struct {
	http *upstream.Client
}

func NewClient(http *upstream.Client) *Client {
	return &Client{http: http}
}

// Alerts resolves the point's forecast zone, then lists that zone's alerts.
func (c *Client) Alerts(ctx context.Context, coord domain.Coordinate) ([]domain.AlertEvent, error) {
	// NWS redirects requests with more than 4 decimal places.
	var point pointResponse
	if err := c.http.GetJSON(ctx, fmt.Sprintf("/points/%.4f,%.4f", coord.Lat, coord.Lon), nil, &point); err != nil {
		return nil, err
	}

	zone := strings.TrimRight(point.Properties.ForecastZone, "/")
	if zone == "" {
		return nil, domain.Transient(c.http.Name(), errors.New("points response has no forecastZone"))
	}

	var alerts alertsResponse
	if err := c.http.GetJSON(ctx, zone+"/alerts", nil, &alerts); err != nil {
		return nil, err
	}

	events := make([]domain.AlertEvent, 0, len(alerts.Features))
	for _, f := range alerts.Features {
		events = append(events, domain.AlertEvent{
			Event:    f.Properties.Event,
			Headline: f.Properties.Headline,
		})
	}
	return events, nil
}

// NWS API response types.

type pointResponse struct {
	Properties struct {
		ForecastZone string `json:"forecastZone"`
	} `json:"properties"`
}

type alertsResponse struct {
	Features []struct {
		Properties struct {
			Event    string `json:"event"`
			Headline string `json:"headline"`
		} `json:"properties"`
	} `json:"features"`
}
