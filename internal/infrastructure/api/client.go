// Package api is the client-side gateway to the FlowTask backend. Every call
// carries the persisted bearer token, and every 401 response fans out to the
// registered OnUnauthorized handlers before the error reaches the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/ports"
	"github.com/flowtask/flowtask/internal/metrics"
)

const (
	defaultTimeout  = 15 * time.Second
	headerRequestID = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// Config captures the settings for reaching the backend.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport (tests). Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements ports.Gateway over HTTP+JSON.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  ports.TokenSource
	log     zerolog.Logger

	mu           sync.RWMutex
	unauthorized []func(ctx context.Context)
}

var _ ports.Gateway = (*Client)(nil)

// NewClient builds a gateway rooted at cfg.BaseURL. tokens may be nil, in
// which case only tokens pinned with ports.WithBearerToken are attached.
func NewClient(cfg Config, tokens ports.TokenSource, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: base url %q must be http or https", cfg.BaseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: base,
		http:    hc,
		tokens:  tokens,
		log:     log.With().Str("component", "api").Logger(),
	}, nil
}

// OnUnauthorized subscribes fn to authorization failures. Handlers run
// synchronously, in subscription order, before the failing call returns.
func (c *Client) OnUnauthorized(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unauthorized = append(c.unauthorized, fn)
}

func (c *Client) bearer(ctx context.Context) string {
	if token, ok := ports.BearerToken(ctx); ok {
		return token
	}
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.LoadToken(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("could not read persisted token, sending request without it")
		return ""
	}
	return token
}

// request describes one backend call.
type request struct {
	endpoint string // metrics label
	method   string
	path     string
	query    url.Values
	body     any
	out      any
}

func (c *Client) do(ctx context.Context, r request) error {
	target := *c.baseURL
	target.Path = c.baseURL.Path + r.path
	if len(r.query) > 0 {
		target.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target.String(), body)
	if err != nil {
		return fmt.Errorf("%s %s: build request: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.APIRequestDuration.WithLabelValues(r.endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(r.endpoint, "transport_error").Inc()
		c.log.Debug().Err(err).Str("method", r.method).Str("path", r.path).Msg("request failed")
		return fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, r.method, r.path, err)
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(r.endpoint, metrics.StatusClass(resp.StatusCode)).Inc()
	c.log.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &domain.APIError{
			StatusCode: resp.StatusCode,
			Detail:     decodeDetail(resp.Body),
			Method:     r.method,
			Path:       r.path,
		}
		if resp.StatusCode == http.StatusUnauthorized {
			metrics.UnauthorizedTotal.Inc()
			c.notifyUnauthorized(ctx)
		}
		return apiErr
	}

	if r.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return fmt.Errorf("%w: %s %s: decode response: %w", domain.ErrUnexpected, r.method, r.path, err)
	}
	return nil
}

func (c *Client) notifyUnauthorized(ctx context.Context) {
	c.mu.RLock()
	handlers := make([]func(context.Context), len(c.unauthorized))
	copy(handlers, c.unauthorized)
	c.mu.RUnlock()

	c.log.Info().Int("handlers", len(handlers)).Msg("authorization denied, clearing session")
	for _, fn := range handlers {
		fn(ctx)
	}
}

// errorEnvelope matches the backend's error body. detail is either a string
// or a list of field errors.
type errorEnvelope struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

type fieldDetail struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func decodeDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	if len(env.Detail) == 0 {
		return env.Error
	}

	var msg string
	if err := json.Unmarshal(env.Detail, &msg); err == nil {
		return msg
	}

	var fields []fieldDetail
	if err := json.Unmarshal(env.Detail, &fields); err == nil {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Msg != "" {
				msgs = append(msgs, f.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
