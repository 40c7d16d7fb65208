package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"solana-token-radar/internal/cache"
	"solana-token-radar/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBase    = 500 * time.Millisecond
	DefaultCacheTTL     = 30 * time.Second
	DefaultCacheEntries = 4096
	DefaultRateCalls    = 5
	DefaultRateWindow   = time.Second
	DefaultProbeTTL     = time.Minute

	maxResponseBytes = 4 << 20
)

// Client is the shared fetch layer every adapter builds on: a sliding-window
// rate limiter, a TTL response cache, transient-only retries with exponential
// backoff, and a circuit breaker around the request path.
type Client struct {
	name         string
	baseURL      string
	apiKey       string
	apiKeyHeader string
	healthPath   string

	httpClient *http.Client
	limiter    *Limiter
	cache      *cache.Cache[[]byte]
	breaker    *gobreaker.CircuitBreaker[[]byte]

	maxRetries int
	retryBase  time.Duration
	probeTTL   time.Duration

	log   zerolog.Logger
	sleep func(ctx context.Context, d time.Duration) error // overridable in tests
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key sent in the given header.
func WithAPIKey(header, key string) ClientOption {
	return func(c *Client) {
		c.apiKeyHeader = header
		c.apiKey = key
	}
}

// WithRateLimit sets the sliding-window limiter bounds.
func WithRateLimit(calls int, window time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = NewLimiter(calls, window)
	}
}

// WithCacheTTL sets the response cache TTL and entry bound.
func WithCacheTTL(ttl time.Duration, maxEntries int) ClientOption {
	return func(c *Client) {
		c.cache = cache.New[[]byte](ttl, maxEntries)
	}
}

// WithRetry sets the retry count and base backoff delay.
// Delay before attempt n is base * 2^(n-1).
func WithRetry(maxRetries int, base time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryBase = base
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHealthPath sets the endpoint used by Healthy probes.
func WithHealthPath(path string) ClientOption {
	return func(c *Client) {
		c.healthPath = path
	}
}

// WithProbeTTL sets how long a health probe result is cached.
func WithProbeTTL(d time.Duration) ClientOption {
	return func(c *Client) {
		c.probeTTL = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a fetch client for one upstream.
func NewClient(name, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    NewLimiter(DefaultRateCalls, DefaultRateWindow),
		cache:      cache.New[[]byte](DefaultCacheTTL, DefaultCacheEntries),
		maxRetries: DefaultMaxRetries,
		retryBase:  DefaultRetryBase,
		probeTTL:   DefaultProbeTTL,
		log:        zerolog.Nop(),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
	})

	c.log = c.log.With().Str("component", "provider").Str("provider", name).Logger()
	return c
}

// Name returns the provider name.
func (c *Client) Name() string { return c.name }

// Get fetches path with the given query parameters. A fresh cached response
// bypasses the limiter, breaker, and network entirely. Transient failures
// are retried with exponential backoff; permanent ones fail immediately.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}

	if body, ok := c.cache.Get(key); ok {
		observability.RecordCacheHit(c.name)
		return body, nil
	}

	if c.limiter.Available() == 0 {
		observability.RecordRateLimiterWait(c.name)
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%s: acquire rate limit: %w", c.name, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryBase << (attempt - 1)
			c.log.Debug().Int("attempt", attempt).Dur("delay", delay).Err(lastErr).Msg("retrying request")
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.do(ctx, key)
		})
		observability.RecordProviderRequest(c.name, time.Since(start).Seconds(), err, errorClass(err))

		if err == nil {
			c.cache.Set(key, body)
			return body, nil
		}
		lastErr = err

		if !Transient(err) {
			return nil, err
		}
	}

	var remote *RemoteError
	if errors.As(lastErr, &remote) && remote.Status == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%s: %w", c.name, ErrRateLimited)
	}
	return nil, fmt.Errorf("%s: retries exhausted: %w", c.name, lastErr)
}

// Healthy probes the configured health endpoint. The result is cached for
// the probe TTL so repeated calls do not consume the rate budget.
func (c *Client) Healthy(ctx context.Context) bool {
	const probeKey = "\x00health-probe"

	if v, ok := c.cache.Get(probeKey); ok {
		return len(v) == 1 && v[0] == 1
	}

	healthy := byte(0)
	_, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, c.healthPath)
	})
	if err == nil {
		healthy = 1
	} else {
		c.log.Warn().Err(err).Msg("health probe failed")
	}

	c.cache.SetTTL(probeKey, []byte{healthy}, c.probeTTL)
	return healthy == 1
}

// do performs a single HTTP GET against baseURL + pathAndQuery.
func (c *Client) do(ctx context.Context, pathAndQuery string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Provider: c.name, Status: resp.StatusCode, Body: truncate(body, 256)}
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
