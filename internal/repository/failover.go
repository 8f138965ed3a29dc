package repository

import (
	"context"
	"sync"
	"time"

	"clubly/internal/domain"
	"clubly/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStateRepository uses primary until it fails, then serves from
// fallback and retries primary once per recoveryInterval.
type FailoverStateRepository struct {
	primary  domain.StateRepository
	fallback domain.StateRepository
	logger   *zerolog.Logger

	mu        sync.Mutex
	down      bool
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverStateRepository) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.down {
		return true
	}
	if r.now().Sub(r.lastCheck) > recoveryInterval {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverStateRepository) report(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		if r.down {
			r.logger.Info().Msg("Primary state repository recovered")
		}
		r.down = false
		return
	}
	if !r.down {
		r.logger.Error().Err(err).Msg("Primary state repository failed, falling back to memory")
	}
	r.down = true
	r.lastCheck = r.now()
}

// IsDown reports whether the fallback is currently serving.
func (r *FailoverStateRepository) IsDown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.down
}

func (r *FailoverStateRepository) GetState(ctx context.Context, userID int64) (*models.FormState, error) {
	if r.usePrimary() {
		state, err := r.primary.GetState(ctx, userID)
		r.report(err)
		if err == nil {
			return state, nil
		}
	}
	return r.fallback.GetState(ctx, userID)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, state *models.FormState) error {
	if r.usePrimary() {
		err := r.primary.SetState(ctx, state)
		r.report(err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.SetState(ctx, state)
}

func (r *FailoverStateRepository) ClearState(ctx context.Context, userID int64) error {
	if r.usePrimary() {
		err := r.primary.ClearState(ctx, userID)
		r.report(err)
		if err == nil {
			// the form may have started while Redis was down
			_ = r.fallback.ClearState(ctx, userID)
			return nil
		}
	}
	return r.fallback.ClearState(ctx, userID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		r.report(err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
