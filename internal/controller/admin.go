package controller

import (
	"context"
	"strings"

	"clubly/internal/events"
	"clubly/internal/models"
)

// Admin actions name the mutation in events and logs.
const (
	ActionCreateEvent        = "create_event"
	ActionUpdateEvent        = "update_event"
	ActionUpdateEventLimited = "update_event_limited"
	ActionUpdatePoster       = "update_event_poster"
	ActionDeleteEvent        = "delete_event"
	ActionCreateOrganization = "create_organization"
	ActionUpdateOrganization = "update_organization"
	ActionAssignCapo         = "assign_capo_promoter"
	ActionIssueCredentials   = "issue_credentials"
)

// mutate runs an admin call and then refetches what it may have changed:
// the catalog for event actions and always the current dashboard view.
func (a *App) mutate(ctx context.Context, action string, touchesEvents bool, call func(token string) (string, error)) (string, error) {
	token, _, err := a.requireToken()
	if err != nil {
		return "", err
	}
	target, err := call(token)
	if err != nil {
		a.log(ctx).Warn().Err(err).Str("action", action).Msg("admin action failed")
		a.handleAuthError(ctx, err)
		return "", fail(err, ActionFailedText)
	}
	a.log(ctx).Info().Str("action", action).Str("target", target).Msg("admin action done")

	if touchesEvents {
		_ = a.catalog.Refresh(ctx)
	}
	_ = a.Refresh(ctx)

	a.mu.Lock()
	switch a.overlay.Kind {
	case OverlayEditEvent, OverlayCreateEvent, OverlayCreateOrganization, OverlayEditOrganization, OverlayIssueCredentials:
		a.overlay = NoOverlay()
	}
	a.mu.Unlock()

	a.publish(events.EventDashboardMutation, events.MutationPayload{TelegramID: a.telegramID, Action: action, TargetID: target})
	return target, nil
}

func (a *App) CreateEvent(ctx context.Context, in models.EventInput) (string, error) {
	if strings.TrimSpace(in.Name) == "" || in.Date == "" || in.StartTime == "" {
		return "", ErrMissingFields
	}
	return a.mutate(ctx, ActionCreateEvent, true, func(token string) (string, error) {
		return a.backend.CreateEvent(ctx, token, in)
	})
}

func (a *App) UpdateEvent(ctx context.Context, id string, in models.EventInput) error {
	_, err := a.mutate(ctx, ActionUpdateEvent, true, func(token string) (string, error) {
		return id, a.backend.UpdateEvent(ctx, token, id, in)
	})
	return err
}

// UpdateEventLimited is the capo promoter edit: name, lineup, times, guests and poster only.
func (a *App) UpdateEventLimited(ctx context.Context, id string, in models.EventLimitedInput) error {
	_, err := a.mutate(ctx, ActionUpdateEventLimited, true, func(token string) (string, error) {
		return id, a.backend.UpdateEventLimited(ctx, token, id, in)
	})
	return err
}

func (a *App) UpdateEventPoster(ctx context.Context, id, poster string) error {
	if strings.TrimSpace(poster) == "" {
		return ErrMissingFields
	}
	_, err := a.mutate(ctx, ActionUpdatePoster, true, func(token string) (string, error) {
		return id, a.backend.UpdateEventPoster(ctx, token, id, poster)
	})
	return err
}

func (a *App) DeleteEvent(ctx context.Context, id string) error {
	_, err := a.mutate(ctx, ActionDeleteEvent, true, func(token string) (string, error) {
		return id, a.backend.DeleteEvent(ctx, token, id)
	})
	return err
}

func (a *App) CreateOrganization(ctx context.Context, in models.OrganizationInput) (string, error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", ErrMissingFields
	}
	return a.mutate(ctx, ActionCreateOrganization, false, func(token string) (string, error) {
		return a.backend.CreateOrganization(ctx, token, in)
	})
}

func (a *App) UpdateOrganization(ctx context.Context, id string, in models.OrganizationInput) error {
	_, err := a.mutate(ctx, ActionUpdateOrganization, false, func(token string) (string, error) {
		return id, a.backend.UpdateOrganization(ctx, token, id, in)
	})
	return err
}

func (a *App) AssignCapoPromoter(ctx context.Context, orgID, userID string) error {
	_, err := a.mutate(ctx, ActionAssignCapo, false, func(token string) (string, error) {
		return orgID, a.backend.AssignCapoPromoter(ctx, token, orgID, userID)
	})
	return err
}

// IssueCredentials creates an account with a temporary password. Capo
// promoters may only issue promoter accounts for their own organization.
func (a *App) IssueCredentials(ctx context.Context, req models.TemporaryCredentialsRequest) (*models.TemporaryCredentialsResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if u := a.User(); u != nil && u.Ruolo == models.RoleCapoPromoter {
		req.Ruolo = models.RolePromoter
		req.Organization = u.Organization
	}
	var result *models.TemporaryCredentialsResult
	_, err := a.mutate(ctx, ActionIssueCredentials, false, func(token string) (string, error) {
		res, err := a.backend.IssueCredentials(ctx, token, req)
		if err != nil {
			return "", err
		}
		result = res
		return res.UserID, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// read runs a non-mutating authorized call.
func read[T any](ctx context.Context, a *App, call func(token string) (T, error)) (T, error) {
	var zero T
	token, _, err := a.requireToken()
	if err != nil {
		return zero, err
	}
	v, err := call(token)
	if err != nil {
		a.handleAuthError(ctx, err)
		return zero, fail(err, ActionFailedText)
	}
	return v, nil
}

func (a *App) Organizations(ctx context.Context) ([]models.Organization, error) {
	return read(ctx, a, func(token string) ([]models.Organization, error) {
		return a.backend.ListOrganizations(ctx, token)
	})
}

func (a *App) Organization(ctx context.Context, id string) (*models.Organization, error) {
	return read(ctx, a, func(token string) (*models.Organization, error) {
		return a.backend.GetOrganization(ctx, token, id)
	})
}

func (a *App) AvailableCapoPromoters(ctx context.Context) ([]models.User, error) {
	return read(ctx, a, func(token string) ([]models.User, error) {
		return a.backend.AvailableCapoPromoters(ctx, token)
	})
}

// TeamPromoters lists the promoters of the current user's organization.
func (a *App) TeamPromoters(ctx context.Context) ([]models.User, error) {
	u := a.User()
	if u == nil {
		return nil, ErrNotAuthenticated
	}
	return read(ctx, a, func(token string) ([]models.User, error) {
		return a.backend.OrganizationPromoters(ctx, token, u.Organization)
	})
}

func (a *App) SearchUsers(ctx context.Context, req models.UserSearchRequest) ([]models.User, error) {
	return read(ctx, a, func(token string) ([]models.User, error) {
		return a.backend.SearchUsers(ctx, token, req)
	})
}

func (a *App) UserProfile(ctx context.Context, userID string) (*models.User, error) {
	return read(ctx, a, func(token string) (*models.User, error) {
		return a.backend.UserProfile(ctx, token, userID)
	})
}
