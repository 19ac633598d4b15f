package deployment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/rbot/pkg/retrylimit"
)

// ErrNotConfigured is returned by a Client without a base URL.
var ErrNotConfigured = errors.New("deployment supervisor is not configured")

// Decision is a resolved approval forwarded to the supervisor.
type Decision struct {
	DeploymentID string
	Approve      bool
	DecidedBy    string
}

func (d Decision) verb() string {
	if d.Approve {
		return "approve"
	}
	return "reject"
}

// Supervisor receives deployment decisions.
type Supervisor interface {
	Decide(ctx context.Context, d Decision) error
}

// Client talks to the deployment supervisor over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.Config
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithRetry(cfg retrylimit.Config) ClientOption {
	return func(c *Client) { c.retry = cfg }
}

func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
		retry: retrylimit.Config{
			MaxAttempts: 3,
			Logger:      logger.With().Str("component", "supervisor").Logger(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type decisionBody struct {
	DecidedBy string `json:"decided_by,omitempty"`
}

// Decide posts to {base}/v1/two-factor-deployment/{id}/{approve|reject}.
func (c *Client) Decide(ctx context.Context, d Decision) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/v1/two-factor-deployment/%s/%s", c.baseURL, url.PathEscape(d.DeploymentID), d.verb())
	body, err := json.Marshal(decisionBody{DecidedBy: d.DecidedBy})
	if err != nil {
		return err
	}

	return retrylimit.Do(ctx, c.limiter, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return retrylimit.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", d.verb(), d.DeploymentID, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &retrylimit.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})
}
