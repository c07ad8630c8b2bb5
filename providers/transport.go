package providers

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

// InspectFunc lets a provider detect error conditions embedded in a 2xx
// response body. It returns nil when the body looks healthy; otherwise an
// error, typically an already-classified *Error.
type InspectFunc func(body []byte) error

// ClientConfig configures a shared upstream fetch client.
type ClientConfig struct {
	// Service is the human-readable upstream name used in classified errors.
	Service string

	// BaseURL is the upstream root; request paths are appended to it.
	BaseURL string

	// APIKey is injected as a query parameter named KeyParam on every
	// request. Leave KeyParam empty for keyless upstreams. A configured
	// KeyParam with an empty APIKey fails every call fast with AUTH_ERROR.
	APIKey   string
	KeyParam string

	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration

	// Inspect runs against each successful response body before it is
	// returned, so providers can surface in-body error envelopes.
	Inspect InspectFunc

	Logger *zap.Logger
}

// Client performs authenticated GETs against one upstream with bounded
// timeouts and linear-backoff retries. It never touches the cache; the
// read-through layer owns that.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient builds a Client with the standard defaults: 10s timeout, 3
// attempts, 1s backoff unit.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Service returns the upstream name used in classified errors.
func (c *Client) Service() string {
	return c.cfg.Service
}

// Get fetches path with the given query parameters, retrying transient
// failures. The delay before attempt n is (n-1) × RetryDelay. Failures
// classified as non-retryable (auth, invalid response) abort immediately;
// otherwise the classified failure of the final attempt is returned.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.cfg.KeyParam != "" && c.cfg.APIKey == "" {
		return nil, AuthError(c.cfg.Service)
	}

	if query == nil {
		query = url.Values{}
	}
	if c.cfg.KeyParam != "" {
		query.Set(c.cfg.KeyParam, c.cfg.APIKey)
	}
	reqURL := c.cfg.BaseURL + path
	if encoded := query.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	var lastErr *Error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * c.cfg.RetryDelay
			c.cfg.Logger.Debug("retrying upstream request",
				zap.String("service", c.cfg.Service),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, Classify(c.cfg.Service, ctx.Err())
			}
		}

		body, err := c.doOnce(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		lastErr = Classify(c.cfg.Service, err)
		if !lastErr.Retryable() {
			return nil, lastErr
		}
		c.cfg.Logger.Warn("upstream request failed",
			zap.String("service", c.cfg.Service),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, InternalError(c.cfg.Service, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, ClassifyStatus(c.cfg.Service, resp.StatusCode, resp.Header.Get("Retry-After"))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if c.cfg.Inspect != nil {
		if err := c.cfg.Inspect(body); err != nil {
			return nil, err
		}
	}
	return body, nil
}
