// Package gateway is the only code in the storefront that talks to the
// REST backend.  It attaches the persisted bearer credential to every
// request, translates between the client model and the backend's
// snake_case schema, and tears the session down on any 401 or 403.
package gateway

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
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/jewelry-storefront/internal/repository"
)

const (
	DefaultBaseURL = "http://localhost:8000/api/v1"
	DefaultTimeout = 15 * time.Second

	maxBodyBytes = 4 << 20
)

// InvalidationHook runs after the gateway has cleared the persisted
// credential because the backend answered 401 or 403.
type InvalidationHook func(ctx context.Context, status int)

// Options configure a Client.  State is required: it is where the bearer
// token is read from and what gets cleared on authorization failure.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	State      repository.StateStore
	Logger     *zap.Logger
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	state   repository.StateStore
	log     *zap.Logger

	mu    sync.RWMutex
	hooks []InvalidationHook
}

// New builds a Client over opts.  It panics when opts.State is nil.
func New(opts Options) *Client {
	if opts.State == nil {
		panic("gateway: nil state store")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Client{baseURL: base, http: hc, state: opts.State, log: lg.Named("gateway")}
}

// OnInvalidate registers a hook run on every 401/403, whichever store
// issued the request.
func (c *Client) OnInvalidate(h InvalidationHook) {
	c.mu.Lock()
	c.hooks = append(c.hooks, h)
	c.mu.Unlock()
}

// request describes one exchange.  Exactly one of body or form may be set.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	form   url.Values
	// token overrides the persisted credential (used right after login,
	// before the token has been persisted).
	token string
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var (
		rdr         io.Reader
		contentType string
	)
	switch {
	case req.form != nil:
		rdr = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.body != nil:
		buf, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("gateway: encode %s %s: %w", req.method, req.path, err)
		}
		rdr = bytes.NewReader(buf)
		contentType = "application/json"
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, u, rdr)
	if err != nil {
		return fmt.Errorf("gateway: build %s %s: %w", req.method, req.path, err)
	}
	if contentType != "" {
		hr.Header.Set("Content-Type", contentType)
	}
	hr.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	hr.Header.Set("X-Request-ID", reqID)
	if tok := c.bearer(ctx, req.token); tok != "" {
		hr.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(hr)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", req.method), zap.String("path", req.path),
			zap.String("request_id", reqID), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, req.method, req.path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %w", ErrUnavailable, req.method, req.path, err)
	}

	c.log.Debug("request",
		zap.String("method", req.method), zap.String("path", req.path),
		zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)),
		zap.String("request_id", reqID))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.invalidate(ctx, resp.StatusCode)
		return newAPIError(resp.StatusCode, body)
	}
	if resp.StatusCode >= 400 {
		return newAPIError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", ErrBackend, req.method, req.path, err)
	}
	return nil
}

func (c *Client) bearer(ctx context.Context, override string) string {
	if override != "" {
		return override
	}
	tok, err := c.state.Get(ctx, repository.KeyToken)
	if err != nil {
		if !errors.Is(err, repository.ErrStateNotFound) {
			c.log.Warn("read persisted token", zap.Error(err))
		}
		return ""
	}
	return tok
}

// invalidate clears the persisted credential and user snapshot, then runs
// the hooks.  It must complete even when the caller's context is done.
func (c *Client) invalidate(ctx context.Context, status int) {
	ctx = context.WithoutCancel(ctx)
	if err := c.state.Delete(ctx, repository.KeyToken, repository.KeyUser); err != nil {
		c.log.Error("clear persisted session", zap.Error(err))
	}
	c.log.Info("session invalidated by backend", zap.Int("status", status))

	c.mu.RLock()
	hooks := append([]InvalidationHook(nil), c.hooks...)
	c.mu.RUnlock()
	for _, h := range hooks {
		h(ctx, status)
	}
}
