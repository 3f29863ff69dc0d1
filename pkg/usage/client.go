package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pacekit/tempo/pkg/pacing"
)

const defaultTimeout = 10 * time.Second

// Client fetches quota utilization from the upstream usage endpoint.
// It implements pacing.UsageSource.
type Client struct {
	endpoint        string
	credentialsPath string
	userAgent       string
	httpClient      *http.Client
}

// Config configures the usage client.
type Config struct {
	// Endpoint is the usage API URL.
	Endpoint string

	// CredentialsPath is the path to the local credentials file holding
	// the bearer token.
	CredentialsPath string

	// Timeout bounds each request. Default: 10 seconds.
	Timeout time.Duration

	// UserAgent is sent with each request.
	UserAgent string
}

// NewClient creates a usage client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		endpoint:        cfg.Endpoint,
		credentialsPath: cfg.CredentialsPath,
		userAgent:       cfg.UserAgent,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

// windowPayload is one window's figures on the wire.
type windowPayload struct {
	Utilization float64    `json:"utilization"`
	ResetsAt    *time.Time `json:"resets_at"`
}

// usagePayload is the upstream response shape. The seven-day window is
// null for account tiers without a long-window quota.
type usagePayload struct {
	FiveHour *windowPayload `json:"five_hour"`
	SevenDay *windowPayload `json:"seven_day"`
}

// Fetch polls the usage endpoint and normalizes the response.
func (c *Client) Fetch(ctx context.Context) (*pacing.Usage, error) {
	token, err := LoadAccessToken(c.credentialsPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build usage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("usage endpoint returned status %d", resp.StatusCode)
	}

	var payload usagePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode usage response: %w", err)
	}

	return &pacing.Usage{
		Short: toReading(payload.FiveHour),
		Long:  toReading(payload.SevenDay),
	}, nil
}

// toReading converts a wire window to a pacing reading. A missing
// window or a window without a reset time is inapplicable.
func toReading(p *windowPayload) *pacing.Reading {
	if p == nil {
		return nil
	}
	return &pacing.Reading{
		UtilizationPct: p.Utilization,
		ResetsAt:       p.ResetsAt,
	}
}
