// Package upstream is the shared HTTP plumbing for provider clients: one
// resty client per provider with a bounded timeout, JSON decoding, and
// failure mapping onto domain.ErrTransient.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/hazard-risk-service/internal/domain"
	"github.com/couchcryptid/hazard-risk-service/internal/observability"
)

// DefaultUserAgent identifies the service to providers that require one.
const DefaultUserAgent = "hazard-risk-service/1.0"

// Client issues GET requests against one provider.
type Client struct {
	name    string
	http    *resty.Client
	metrics *observability.Metrics
}

// New creates a client for provider name rooted at baseURL.
// metrics may be nil.
func New(name, baseURL string, timeout time.Duration, metrics *observability.Metrics) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", DefaultUserAgent).
		SetHeader("Accept", "application/json")
	return &Client{name: name, http: r, metrics: metrics}
}

// WithUserAgent overrides the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.http.SetHeader("User-Agent", ua)
	}
	return c
}

// Name returns the provider name used in errors and metrics.
func (c *Client) Name() string { return c.name }

// GetJSON fetches path (relative to the base URL, or absolute) and decodes
// the JSON body into out. Transport errors, timeouts, non-2xx statuses and
// undecodable bodies all wrap domain.ErrTransient.
func (c *Client) GetJSON(ctx context.Context, path string, params map[string]string, out any) error {
	start := time.Now()
	err := c.get(ctx, path, params, out)
	c.observe(start, err)
	return err
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return domain.Transient(c.name, fmt.Errorf("request: %w", err))
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return domain.Transient(c.name, fmt.Errorf("status %d: %s", resp.StatusCode(), truncate(resp.String(), 200)))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return domain.Transient(c.name, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) observe(start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.ProviderRequests.WithLabelValues(c.name, outcome).Inc()
	c.metrics.ProviderDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
