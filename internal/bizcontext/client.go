// Package bizcontext fetches the caller's business profile from the
// auth/registry service. Enrichment is best-effort: every failure mode
// degrades to an absent profile, never to an aborted turn.
package bizcontext

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bizcopilot/bizcopilot/internal/domain"
)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each fetch. Zero leaves only the caller's deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used to report degraded fetches.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client fetches business profiles over HTTP with the caller's own bearer
// credential. It performs one round trip per fetch and no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// New creates a client against the registry service base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the profile for businessID, or nil when anything goes wrong:
// transport error, timeout, non-2xx status, malformed body. The cause is
// logged, not returned; callers cannot distinguish the failure modes and
// must not try.
func (c *Client) Fetch(ctx context.Context, businessID, credential string) *domain.BusinessProfile {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/api/business/%s", c.baseURL, businessID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.degrade(ctx, businessID, err)
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.degrade(ctx, businessID, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.degrade(ctx, businessID, fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
		return nil
	}

	var profile domain.BusinessProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		c.degrade(ctx, businessID, err)
		return nil
	}

	return &profile
}

func (c *Client) degrade(ctx context.Context, businessID string, err error) {
	c.logger.WarnContext(ctx, "business context fetch failed, continuing without profile",
		slog.String("business_id", businessID),
		slog.String("error", err.Error()),
	)
}
