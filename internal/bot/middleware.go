package bot

import (
	"context"
	"time"

	"clubly/internal/metrics"

	"github.com/rs/zerolog"
)

const rateLimitText = "⚠️ Stai inviando troppi messaggi. Attendi qualche secondo e riprova."

func (b *Bot) withRecovery(l *zerolog.Logger, handler func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncUpdateError("panic")
			l.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}

// allowUpdate applies the per-user rate limit. A failing limiter lets the
// update through.
func (b *Bot) allowUpdate(ctx context.Context, userID int64) bool {
	window := time.Duration(b.config.Bot.RateLimitWindow) * time.Second
	allowed, err := b.stateService.CheckRateLimit(ctx, userID, b.config.Bot.RateLimitMessages, window)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Rate limit check failed")
		return true
	}
	if !allowed {
		metrics.IncUpdateError("rate_limited")
		zerolog.Ctx(ctx).Warn().Msg("Rate limit exceeded")
	}
	return allowed
}
