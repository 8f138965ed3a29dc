package controller

import (
	"context"
	"fmt"

	"clubly/internal/models"
)

// DashboardState is a snapshot of the role-scoped dashboard.
type DashboardState struct {
	View    models.DashboardView
	Data    *models.Dashboard
	Loading bool
	Err     error
}

func (a *App) Dashboard() DashboardState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return DashboardState{View: a.view, Data: a.dashboard, Loading: a.dashboardLoading, Err: a.dashboardErr}
}

// SetView switches the dashboard view and fetches its payload. The main
// view has no payload.
func (a *App) SetView(ctx context.Context, view models.DashboardView) error {
	if !view.Valid() {
		return fmt.Errorf("unknown dashboard view %q", view)
	}
	a.mu.Lock()
	if a.user == nil {
		a.mu.Unlock()
		return ErrNotAuthenticated
	}
	if !a.user.CanOpen(view) {
		a.mu.Unlock()
		return ErrForbiddenView
	}
	if a.view != view {
		a.dashboard = nil
		a.dashboardErr = nil
	}
	a.view = view
	a.mu.Unlock()

	return a.Refresh(ctx)
}

// Refresh refetches the current view. A failed fetch is logged and the
// previous payload stays in place.
func (a *App) Refresh(ctx context.Context) error {
	a.mu.Lock()
	if a.token == "" {
		a.mu.Unlock()
		return ErrNotAuthenticated
	}
	view := a.view
	if view == models.ViewMain {
		a.mu.Unlock()
		return nil
	}
	a.dashboardGen++
	gen, token := a.dashboardGen, a.token
	a.dashboardLoading = true
	a.mu.Unlock()

	data, err := a.backend.Dashboard(ctx, token, view)

	a.mu.Lock()
	if gen != a.dashboardGen {
		a.mu.Unlock()
		return nil
	}
	a.dashboardLoading = false
	if err != nil {
		a.dashboardErr = err
		a.mu.Unlock()
		a.log(ctx).Error().Err(err).Str("view", string(view)).Msg("failed to load dashboard")
		a.handleAuthError(ctx, err)
		return err
	}
	a.dashboard = data
	a.dashboardErr = nil
	a.mu.Unlock()
	return nil
}
