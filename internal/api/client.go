package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/challengr/internal/repository"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is where the remote API listens in development.
const DefaultBaseURL = "http://localhost:5220/api"

const maxErrorBody = 4 << 10

// TokenSource supplies bearer tokens and is told when the remote service
// rejects one.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

// Options configure a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64
	Burst      int
	HTTPClient *http.Client
	Metrics    *Metrics
	Logger     *slog.Logger
}

// Client talks JSON to the remote challenge API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	metrics *Metrics
	logger  *slog.Logger
	tokens  TokenSource
}

// NewClient creates a client. A RateLimit of zero or less disables
// outbound throttling.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		limiter: limiter,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

// SetTokenSource sets where authenticated calls get their bearer token.
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// endpoint names a route for metrics and logs independently of its IDs.
type endpoint struct {
	method string
	route  string
	public bool
}

func (c *Client) do(ctx context.Context, ep endpoint, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, ep.method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !ep.public {
		if c.tokens == nil {
			return repository.ErrUnauthorized
		}
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(ep, "error", start)
		return fmt.Errorf("%s %s: %w", ep.method, ep.route, err)
	}
	defer resp.Body.Close()
	c.observe(ep, strconv.Itoa(resp.StatusCode), start)

	if c.logger != nil {
		c.logger.Debug("api call", "method", ep.method, "route", ep.route, "status", resp.StatusCode,
			"duration", time.Since(start), "request_id", req.Header.Get("X-Request-ID"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(ctx, ep, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding %s response: %w", ep.route, err)
	}
	return nil
}

func (c *Client) statusError(ctx context.Context, ep endpoint, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if !ep.public && c.tokens != nil {
			c.tokens.Invalidate(ctx)
		}
		return repository.ErrUnauthorized
	case http.StatusForbidden:
		return repository.ErrForbidden
	case http.StatusNotFound:
		return repository.ErrNotFound
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", repository.ErrConflict, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", repository.ErrInvalidInput, msg)
	default:
		return &StatusError{Method: ep.method, Route: ep.route, Code: resp.StatusCode, Body: msg}
	}
}

func (c *Client) observe(ep endpoint, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.requests.WithLabelValues(ep.route, ep.method, status).Inc()
	c.metrics.duration.WithLabelValues(ep.route, ep.method).Observe(time.Since(start).Seconds())
}
