package api

import (
	"context"
	"sync"

	"clubly/internal/config"

	"golang.org/x/time/rate"
)

const anonymousKey = "anonymous"

// rateLimiter keeps one token bucket per bearer token so a single chatty user
// cannot exhaust the backend budget of everyone else.
type rateLimiter struct {
	limiters sync.Map
	cfg      config.BackendRateLimitConfig
}

func newRateLimiter(cfg config.BackendRateLimitConfig) *rateLimiter {
	return &rateLimiter{
		cfg: cfg,
	}
}

func (l *rateLimiter) wait(ctx context.Context, token string) error {
	if l.cfg.RPS <= 0 {
		return nil
	}
	key := token
	if key == "" {
		key = anonymousKey
	}
	return l.getLimiter(key).Wait(ctx)
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}

// forget drops the bucket of a token that is no longer used.
func (l *rateLimiter) forget(token string) {
	if token != "" {
		l.limiters.Delete(token)
	}
}
