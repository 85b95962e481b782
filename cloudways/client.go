// Package cloudways talks to the Cloudways REST API: it exchanges account
// credentials for an access token and requests git pull deployments.
package cloudways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/imranansari/cloudways-deploy-action/config"
)

// Client performs JSON POST requests against a fixed API base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// NewClient creates a client bound to the configured API base URL.
// No timeout is set; the transport defaults apply.
func NewClient(cfg config.CloudwaysConfig, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.APIURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

type rawResponse struct {
	StatusCode int
	OK         bool
	Body       []byte
}

// postJSON sends payload to path and returns the status and body whatever the status is.
// Only failures to reach the API or read its answer are returned as errors.
func (c *Client) postJSON(ctx context.Context, path string, token AccessToken, payload any) (*rawResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, transportError(fmt.Errorf("failed to encode request body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+string(token))
	}

	c.logger.Debug().
		Str("method", http.MethodPost).
		Str("path", path).
		Msg("Calling Cloudways API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("Cloudways API request failed")
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("Cloudways API responded")

	return &rawResponse{
		StatusCode: resp.StatusCode,
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		Body:       data,
	}, nil
}

// decodeBody parses a JSON response body into v
func decodeBody(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return transportError(err)
	}
	return nil
}
