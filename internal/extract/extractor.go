// Package extract implements the CKAN datastore client for the Quebec open
// data portal.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lekaf974/qc-bike-path/internal/cache"
	"github.com/lekaf974/qc-bike-path/internal/config"
)

// ErrResourceIDMissing indicates the dataset resource id was never
// configured. It is a configuration failure and is reported before any
// network call.
var ErrResourceIDMissing = errors.New("bike path resource id is not configured")

// maxBodyBytes bounds how much of a portal response is read.
const maxBodyBytes = 32 << 20

// Payload is the CKAN datastore_search response envelope.
type Payload struct {
	Success bool   `json:"success"`
	Result  Result `json:"result"`
}

// Result carries the record page of a datastore_search response.
type Result struct {
	ResourceID string           `json:"resource_id"`
	Records    []map[string]any `json:"records"`
	Total      int              `json:"total"`
}

// Client fetches bike path batches from the portal with retry, rate
// limiting and response caching.
type Client struct {
	httpClient *http.Client
	baseURL    string
	resourceID string
	userAgent  string
	retries    uint64
	limiter    *rate.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	log        zerolog.Logger
}

// NewClient creates a portal client from the application configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	limit := rate.Inf
	if cfg.API.RateLimit > 0 {
		limit = rate.Limit(cfg.API.RateLimit)
	}

	var responseCache cache.Cache
	if cfg.Cache.Enabled {
		responseCache = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.API.Timeout},
		baseURL:    cfg.API.BaseURL,
		resourceID: cfg.API.ResourceID,
		userAgent:  cfg.API.UserAgent,
		retries:    uint64(cfg.API.RetryAttempts),
		limiter:    rate.NewLimiter(limit, 1),
		cache:      responseCache,
		cacheTTL:   cfg.Cache.TTL,
		log:        log,
	}
}

// Fetch retrieves one batch of raw bike path records. limit <= 0 requests
// the portal's default page size. Transient failures are retried with
// exponential backoff; client errors fail immediately.
func (c *Client) Fetch(ctx context.Context, limit int) (*Payload, error) {
	if c.resourceID == "" {
		return nil, ErrResourceIDMissing
	}

	reqURL := c.buildURL(limit)
	cacheKey := cache.Key(reqURL)

	if c.cache != nil {
		if body, found := c.cache.Get(cacheKey); found {
			c.log.Debug().Int("limit", limit).Msg("portal response served from cache")
			return decodePayload(body)
		}
	}

	var body []byte
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		b, err := c.fetchOnce(ctx, reqURL)
		if err != nil {
			c.log.Warn().Err(err).Str("url", c.baseURL).Msg("portal fetch attempt failed")
			return err
		}
		body = b
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("fetch bike path data: %w", err)
	}

	payload, err := decodePayload(body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		_ = c.cache.Set(cacheKey, body, c.cacheTTL)
	}

	c.log.Info().
		Int("record_count", len(payload.Result.Records)).
		Int("total", payload.Result.Total).
		Msg("successfully extracted bike path data")

	return payload, nil
}

func (c *Client) buildURL(limit int) string {
	params := url.Values{}
	params.Set("resource_id", c.resourceID)
	params.Set("format", "json")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return c.baseURL + "?" + params.Encode()
}

func (c *Client) fetchOnce(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("unexpected status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		if retryableStatus(resp.StatusCode) {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// decodePayload parses a portal response and validates its basic structure.
func decodePayload(body []byte) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Result.Records == nil {
		return nil, errors.New("invalid response format: missing records in result")
	}
	return &payload, nil
}
