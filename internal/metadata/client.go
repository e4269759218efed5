package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pku-software/docman-homework-judge-action/internal/cache"
	"github.com/pku-software/docman-homework-judge-action/internal/logging"
	"github.com/pku-software/docman-homework-judge-action/internal/model"
	"github.com/pku-software/docman-homework-judge-action/internal/util"
	"github.com/pku-software/docman-homework-judge-action/internal/worker"
)

const maxBodyBytes = 1 << 20

// Client queries the lookup service at GET {endpoint}/isbn/{isbn} and
// GET {endpoint}/title/{url}
type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	maxRetries int
	limiter    *worker.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	group      singleflight.Group
	logger     *slog.Logger

	// sleep waits between retries; tests replace it
	sleep func(time.Duration)
}

type options struct {
	httpClient *http.Client
	limiter    *worker.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// Option customizes a Client or PageResolver
type Option func(*options)

// WithCache stores successful answers in c for ttl
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = c
		o.cacheTTL = ttl
	}
}

// WithHTTPClient replaces the HTTP client built from the configuration
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLimiter shares a rate limiter between resolvers
func WithLimiter(l *worker.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(cfg model.MetadataConfig, component string, opts []Option) options {
	o := options{cache: cache.Nop{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		proxy := util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, "")
		o.httpClient = util.NewHTTPClient(cfg.Timeout, proxy, 3)
	}
	if o.limiter == nil {
		o.limiter = worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}
	if o.logger == nil {
		o.logger = logging.New(component)
	}
	return o
}

// NewClient creates a service client from configuration
func NewClient(cfg model.MetadataConfig, opts ...Option) *Client {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = model.DefaultMetadataEndpoint
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}

	o := buildOptions(cfg, "metadata", opts)
	return &Client{
		endpoint:   endpoint,
		httpClient: o.httpClient,
		userAgent:  cfg.UserAgent,
		maxRetries: retries,
		limiter:    o.limiter,
		cache:      o.cache,
		cacheTTL:   o.cacheTTL,
		logger:     o.logger,
		sleep:      time.Sleep,
	}
}

// Book looks up an ISBN
func (c *Client) Book(ctx context.Context, isbn string) (Book, bool, error) {
	body, err := c.fetch(ctx, "isbn", isbn)
	if err != nil {
		return Book{}, false, err
	}
	b, ok := decodeBook(body)
	return b, ok, nil
}

// Page looks up the title of a URL
func (c *Client) Page(ctx context.Context, rawURL string) (Page, bool, error) {
	body, err := c.fetch(ctx, "title", rawURL)
	if err != nil {
		return Page{}, false, err
	}
	p, ok := decodePage(body)
	return p, ok, nil
}

func (c *Client) fetch(ctx context.Context, route, subject string) ([]byte, error) {
	key := cache.Key(route, subject)
	if body, ok := c.cache.Get(key); ok {
		c.logger.Debug("cache hit", "route", route, "subject", subject)
		return body, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		body, cacheable, err := c.fetchWithRetry(ctx, route, subject)
		if err != nil {
			return nil, err
		}
		if cacheable {
			if err := c.cache.Set(key, body, c.cacheTTL); err != nil {
				c.logger.Warn("cache write failed", "error", err)
			}
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// errRetryable marks failures worth another attempt
var errRetryable = errors.New("retryable")

func (c *Client) fetchWithRetry(ctx context.Context, route, subject string) ([]byte, bool, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		body, cacheable, err := c.fetchOnce(ctx, route, subject)
		if err == nil {
			return body, cacheable, nil
		}
		lastErr = err
		if !errors.Is(err, errRetryable) || ctx.Err() != nil {
			break
		}
		if attempt < c.maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 500 * time.Millisecond
			c.logger.Debug("retrying lookup", "route", route, "attempt", attempt+1, "backoff", backoff, "error", err)
			c.sleep(backoff)
		}
	}
	return nil, false, fmt.Errorf("lookup %s %q: %w", route, subject, lastErr)
}

// fetchOnce performs one request. Any 2xx or non-retryable 4xx body is
// handed back for field validation; only 2xx bodies are cacheable.
func (c *Client) fetchOnce(ctx context.Context, route, subject string) ([]byte, bool, error) {
	target := c.endpoint + "/" + route + "/" + EscapeSegment(subject)

	if err := c.limiter.Wait(ctx, target); err != nil {
		return nil, false, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w: %v", errRetryable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, false, fmt.Errorf("%w: read body: %v", errRetryable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, false, fmt.Errorf("%w: status %d", errRetryable, resp.StatusCode)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, true, nil
	default:
		c.logger.Debug("lookup rejected", "route", route, "subject", subject, "status", resp.StatusCode)
		return body, false, nil
	}
}
