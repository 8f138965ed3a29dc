package service

import (
	"context"
	"time"

	"clubly/internal/domain"
	"clubly/internal/models"

	"github.com/rs/zerolog"
)

// StateService keeps the progress of multi-step forms.
type StateService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
}

func NewStateService(stateRepo domain.StateRepository, logger *zerolog.Logger) *StateService {
	return &StateService{
		stateRepo: stateRepo,
		logger:    logger,
	}
}

func (s *StateService) GetUserState(ctx context.Context, userID int64) (*models.FormState, error) {
	state, err := s.stateRepo.GetState(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get user state")
		return nil, err
	}

	return state, nil
}

// StartForm replaces any form in progress with a fresh one.
func (s *StateService) StartForm(ctx context.Context, userID int64, form, step string) (*models.FormState, error) {
	state := models.NewFormState(userID, form, step)
	if err := s.stateRepo.SetState(ctx, state); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Str("form", form).Msg("failed to start form")
		return nil, err
	}
	return state, nil
}

func (s *StateService) SaveUserState(ctx context.Context, state *models.FormState) error {
	return s.stateRepo.SetState(ctx, state)
}

func (s *StateService) ClearUserState(ctx context.Context, userID int64) error {
	return s.stateRepo.ClearState(ctx, userID)
}

func (s *StateService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return s.stateRepo.CheckRateLimit(ctx, userID, limit, window)
}
