package scraper

import (
	"context"
	"net/http"
	"time"

	"sjsage522/pricewatch/helpers"
	"sjsage522/pricewatch/logger"
	"sjsage522/pricewatch/pkg/errors"
	"sjsage522/pricewatch/services/cache"
)

const rateLimitKeyPrefix = "pricewatch:ratelimit:"

// Response is a fetched page. Body is UTF-8.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher retrieves product pages. It does not retry.
type Fetcher struct {
	client    *http.Client
	cacheSvc  cache.CacheService
	blockTime time.Duration
	log       *logger.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithRateLimitCache blocks a host for blockTime after it answers 429
func WithRateLimitCache(cacheSvc cache.CacheService, blockTime time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cacheSvc = cacheSvc
		f.blockTime = blockTime
	}
}

// NewFetcher creates a fetcher with the given request timeout
func NewFetcher(timeout time.Duration, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: helpers.NewHTTPClient(timeout),
		log:    logger.ForScraper(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a single GET. A non-2xx status still returns the response,
// together with an HTTP error carrying the status.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	host := helpers.HostOf(url)
	if f.isBlocked(host) {
		return nil, errors.NewRateLimit(url, f.blockTime)
	}

	page, err := helpers.FetchWithBrowserHeaders(ctx, f.client, url)
	if err != nil {
		return nil, errors.NewNetwork(url, "request failed", err)
	}

	resp := &Response{URL: page.URL, StatusCode: page.StatusCode, Body: page.Body}
	if page.OK() {
		return resp, nil
	}

	if page.StatusCode == http.StatusTooManyRequests {
		f.block(host)
	}
	return resp, errors.NewHTTP(url, page.StatusCode)
}

func (f *Fetcher) isBlocked(host string) bool {
	if f.cacheSvc == nil || host == "" {
		return false
	}
	_, err := f.cacheSvc.Get(rateLimitKeyPrefix + host)
	return err == nil
}

func (f *Fetcher) block(host string) {
	if f.cacheSvc == nil || host == "" || f.blockTime <= 0 {
		return
	}
	if err := f.cacheSvc.Set(rateLimitKeyPrefix+host, []byte(time.Now().Format(time.RFC3339)), f.blockTime); err != nil {
		f.log.Warn().Err(err).Str("host", host).Msg("Failed to record rate limit block")
		return
	}
	f.log.Warn().Str("host", host).Dur("block", f.blockTime).Msg("Host rate limited, blocking further requests")
}
