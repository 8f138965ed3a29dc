package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clubly/internal/config"
	"clubly/internal/logging"
	"clubly/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Client calls the Clubly REST backend. It is shared by all Telegram users; the
// bearer token is passed per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rateLimiter
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for cfg.BaseURL.
func NewClient(cfg config.BackendConfig, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newRateLimiter(cfg.RateLimit),
		logger:     logger,
	}
}

// UseRedisCache configures optional Redis caching for the public event catalog.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// request describes one backend call. route is the metrics label and must not
// contain ids.
type request struct {
	method string
	route  string
	path   string
	token  string
	body   any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if err := c.limiter.wait(ctx, r.token); err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.route, err)
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", r.route, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return err
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", logging.RequestID(ctx))
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	log := c.log(ctx)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	took := time.Since(start)
	if err != nil {
		metrics.ObserveBackend(r.route, 0, took)
		log.Warn().Err(err).Str("method", r.method).Str("route", r.route).Dur("took", took).Msg("backend request failed")
		return fmt.Errorf("%s %s: %w", r.method, r.route, err)
	}
	defer resp.Body.Close()

	metrics.ObserveBackend(r.route, resp.StatusCode, took)
	log.Debug().Str("method", r.method).Str("route", r.route).Int("status", resp.StatusCode).Dur("took", took).Msg("backend request")

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.route, err)
	}
	return nil
}

func (c *Client) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return c.logger
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.log(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

func (c *Client) dropCache(ctx context.Context, keys ...string) {
	if c.redis == nil || len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log(ctx).Warn().Err(err).Strs("keys", keys).Msg("catalog cache invalidation failed")
	}
}
