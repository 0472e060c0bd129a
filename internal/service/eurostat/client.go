package eurostat

import (
	"context"
	"fmt"
	"time"

	"EconPulse/internal/service/ratelimit"
	xhttp "EconPulse/pkg/http"
)

const (
	defaultBaseURL = "https://ec.europa.eu/eurostat/api/dissemination/statistics/1.0/data"
	defaultTimeout = 60 * time.Second

	// Politeness limit against the public dissemination API, overridable
	// via WithRequestsPerMinute.
	rateKey                 = "eurostat"
	defaultRateCapacity     = 2.0
	defaultRateRefillPerSec = 2.0
)

// Client fetches JSON-stat dataset snapshots from the Eurostat
// dissemination API.
type Client struct {
	baseURL    string
	client     *xhttp.Client
	limiter    *ratelimit.Limiter
	rateCap    float64
	rateRefill float64 // tokens per second
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the dissemination API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.client = xhttp.NewClient(xhttp.WithTimeout(d))
		}
	}
}

// WithRequestsPerMinute overrides the politeness budget. Burst capacity
// tracks the per-second refill, with a floor of one request.
func WithRequestsPerMinute(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.rateRefill = float64(n) / 60
			c.rateCap = c.rateRefill
			if c.rateCap < 1 {
				c.rateCap = 1
			}
		}
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		client:     xhttp.NewClient(xhttp.WithTimeout(defaultTimeout)),
		limiter:    ratelimit.New(),
		rateCap:    defaultRateCapacity,
		rateRefill: defaultRateRefillPerSec,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDataset downloads one dataset snapshot filtered by the spec's
// parameters. Multi-valued parameters (geo) repeat in the query string.
func (c *Client) FetchDataset(ctx context.Context, spec DatasetSpec) (*Document, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	query := map[string][]string{
		"format": {"JSON"},
		"lang":   {"en"},
	}
	for key, vals := range spec.Params {
		query[key] = vals
	}

	var doc Document
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/" + spec.Code,
		QueryParams: query,
	}, &doc)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", spec.Code, err)
	}
	return &doc, nil
}

// wait blocks until the politeness limiter grants a token or ctx ends.
func (c *Client) wait(ctx context.Context) error {
	for {
		if c.limiter.Allow(rateKey, c.rateCap, c.rateRefill) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
