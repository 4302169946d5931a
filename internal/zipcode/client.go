// Package zipcode resolves US ZIP codes to city names for REI jobs.
//
// Lookups go through an in-process LRU, then an optional shared Redis cache,
// then the HTTP directory. Concurrent lookups of the same ZIP share one
// upstream request.
package zipcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/example/exterminus/internal/metrics"
)

// Cache layers reported to metrics.
const (
	layerMemory = "memory"
	layerShared = "redis"
)

// ErrUpstream indicates the ZIP directory answered with an unexpected status.
var ErrUpstream = errors.New("zipcode: upstream error")

// SharedCache is a cache shared between processes. Found reports whether the
// ZIP has been resolved before; an empty city is a remembered non-match.
type SharedCache interface {
	Get(ctx context.Context, zip string) (city string, found bool, err error)
	Set(ctx context.Context, zip, city string) error
}

// Config controls the HTTP directory client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	CacheSize  int
}

// DefaultConfig targets the public zippopotam.us directory.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "https://api.zippopotam.us",
		Timeout:    5 * time.Second,
		RetryCount: 2,
		CacheSize:  1024,
	}
}

// Client looks up city names by ZIP code.
type Client struct {
	http    *resty.Client
	local   *lru.Cache[string, string]
	shared  SharedCache
	group   singleflight.Group
	metrics *metrics.CacheCounter
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithSharedCache adds a cache consulted after the in-process LRU.
func WithSharedCache(cache SharedCache) Option {
	return func(c *Client) { c.shared = cache }
}

// WithMetrics records cache hits and misses on counter.
func WithMetrics(counter *metrics.CacheCounter) Option {
	return func(c *Client) { c.metrics = counter }
}

// WithLogger sets the logger used for swallowed cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a client for cfg.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("zipcode: base URL is required")
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	local, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("zipcode: create cache: %w", err)
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/json")

	client := &Client{http: httpClient, local: local, logger: slog.Default()}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type placesResponse struct {
	PostCode string `json:"post code"`
	Places   []struct {
		PlaceName string `json:"place name"`
		State     string `json:"state abbreviation"`
	} `json:"places"`
}

// LookupCity returns the city for zip, or an empty string when the directory
// has no match.
func (c *Client) LookupCity(ctx context.Context, zip string) (string, error) {
	zip = strings.TrimSpace(zip)
	if city, ok := c.local.Get(zip); ok {
		c.metrics.Hit(layerMemory)
		return city, nil
	}
	c.metrics.Miss(layerMemory)

	// The shared call outlives any single waiter; the HTTP timeout bounds it.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(zip, func() (any, error) {
		return c.resolve(shared, zip)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return "", result.Err
		}
		return result.Val.(string), nil
	}
}

func (c *Client) resolve(ctx context.Context, zip string) (string, error) {
	if c.shared != nil {
		city, found, err := c.shared.Get(ctx, zip)
		switch {
		case err != nil:
			c.logger.WarnContext(ctx, "shared zip cache read failed", "zip", zip, "error", err)
		case found:
			c.metrics.Hit(layerShared)
			c.local.Add(zip, city)
			return city, nil
		default:
			c.metrics.Miss(layerShared)
		}
	}

	city, err := c.fetch(ctx, zip)
	if err != nil {
		return "", err
	}
	c.local.Add(zip, city)
	if c.shared != nil {
		if err := c.shared.Set(ctx, zip, city); err != nil {
			c.logger.WarnContext(ctx, "shared zip cache write failed", "zip", zip, "error", err)
		}
	}
	return city, nil
}

func (c *Client) fetch(ctx context.Context, zip string) (string, error) {
	var body placesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("zip", zip).
		SetResult(&body).
		Get("/us/{zip}")
	if err != nil {
		return "", fmt.Errorf("zipcode: lookup %s: %w", zip, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return "", nil
	case resp.IsError():
		return "", fmt.Errorf("%w: lookup %s: status %d", ErrUpstream, zip, resp.StatusCode())
	}
	if len(body.Places) == 0 {
		return "", nil
	}
	return strings.TrimSpace(body.Places[0].PlaceName), nil
}
