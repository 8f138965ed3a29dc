package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clubly/internal/api"
	"clubly/internal/events"
	"clubly/internal/metrics"
	"clubly/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Gate is a profile step that must be completed before anything else.
type Gate int

const (
	GateNone Gate = iota
	GateSetup
	GatePasswordChange
)

func gateFor(u *models.User) Gate {
	switch {
	case u == nil:
		return GateNone
	case u.NeedsSetup:
		return GateSetup
	case u.NeedsPasswordChange:
		return GatePasswordChange
	}
	return GateNone
}

// tokenExpired reads the exp claim without verifying the signature. Tokens
// that are not JWTs or carry no exp are left to the backend.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

func (a *App) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != "" && a.user != nil
}

// User returns a copy of the current user, or nil when anonymous.
func (a *App) User() *models.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

func (a *App) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *App) Gate() Gate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return gateFor(a.user)
}

// Startup restores the session from the stored token.
func (a *App) Startup(ctx context.Context) error {
	token, err := a.tokens.GetToken(ctx, a.telegramID)
	if err != nil {
		return fmt.Errorf("failed to read stored token: %w", err)
	}
	if token == "" {
		return nil
	}

	if tokenExpired(token, a.now()) {
		a.log(ctx).Info().Msg("stored token expired, clearing")
		return a.tokens.ClearToken(ctx, a.telegramID)
	}

	user, err := a.backend.Profile(ctx, token)
	if err != nil {
		if api.IsUnauthorized(err) {
			a.log(ctx).Info().Err(err).Msg("stored token rejected, clearing")
			return a.tokens.ClearToken(ctx, a.telegramID)
		}
		return fmt.Errorf("failed to load profile: %w", err)
	}

	a.establish(token, user)
	a.log(ctx).Info().Str("user_id", user.ID).Msg("session restored")
	return nil
}

// Login authenticates with email or username and password.
func (a *App) Login(ctx context.Context, identifier, password string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return ErrMissingCredentials
	}

	resp, err := a.backend.Login(ctx, models.LoginRequest{Login: identifier, Password: password})
	if err != nil {
		a.log(ctx).Info().Err(err).Msg("login failed")
		return fail(err, LoginFailedText)
	}
	return a.signIn(ctx, resp)
}

func (a *App) Register(ctx context.Context, req models.RegisterRequest) error {
	req.Nome = strings.TrimSpace(req.Nome)
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Nome == "" || req.Email == "" || req.Username == "" || req.Password == "" {
		return ErrMissingFields
	}

	resp, err := a.backend.Register(ctx, req)
	if err != nil {
		a.log(ctx).Info().Err(err).Msg("registration failed")
		return fail(err, RegisterFailedText)
	}
	return a.signIn(ctx, resp)
}

func (a *App) signIn(ctx context.Context, resp *models.AuthResponse) error {
	if resp.Token == "" {
		return &Failure{Message: LoginFailedText, Err: errors.New("backend returned no token")}
	}
	if err := a.tokens.SetToken(ctx, a.telegramID, resp.Token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	user := resp.User
	a.establish(resp.Token, &user)
	a.publish(events.EventLoggedIn, events.SessionPayload{
		TelegramID: a.telegramID,
		UserID:     user.ID,
		Role:       string(user.Ruolo),
	})
	a.log(ctx).Info().Str("user_id", user.ID).Str("role", string(user.Ruolo)).Msg("logged in")
	return nil
}

func (a *App) establish(token string, user *models.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == "" {
		metrics.SessionOpened()
	}
	a.epoch++
	a.token = token
	a.user = user
	a.applyGateLocked()
}

// applyGateLocked picks the overlay after the user changed: a profile gate
// first, then a booking form left pending by the auth requirement.
func (a *App) applyGateLocked() {
	switch gateFor(a.user) {
	case GateSetup:
		a.overlay = SetupOverlay()
		return
	case GatePasswordChange:
		a.overlay = PasswordChangeOverlay()
		return
	}
	if a.booking.State == BookingAuthRequired && a.booking.Event != nil {
		a.openBookingFormLocked()
		return
	}
	if a.overlay.Kind == OverlayAuth || a.overlay.IsGate() {
		a.overlay = NoOverlay()
	}
}

// Logout drops every piece of session state. The backend is not contacted.
func (a *App) Logout(ctx context.Context) error {
	a.mu.Lock()
	token := a.token
	user := a.user
	a.epoch++
	a.chatGen++
	a.dashboardGen++
	a.token = ""
	a.user = nil
	a.overlay = NoOverlay()
	a.booking = BookingFlow{}
	a.chats = nil
	a.selectedChat = ""
	a.messages = nil
	a.loadingMessages = false
	a.draft = ""
	a.sending = false
	a.unread = 0
	a.view = models.ViewMain
	a.dashboard = nil
	a.dashboardLoading = false
	a.dashboardErr = nil
	a.mu.Unlock()

	if token != "" {
		metrics.SessionClosed()
		a.backend.ForgetToken(token)
	}
	if user != nil {
		a.publish(events.EventLoggedOut, events.SessionPayload{TelegramID: a.telegramID, UserID: user.ID, Role: string(user.Ruolo)})
	}

	if err := a.tokens.ClearToken(ctx, a.telegramID); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// CompleteSetup submits the first-login profile form.
func (a *App) CompleteSetup(ctx context.Context, req models.SetupRequest) error {
	return a.mutateProfile(ctx, func(token string) (*models.User, error) {
		return a.backend.CompleteSetup(ctx, token, req)
	})
}

func (a *App) ChangePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return ErrMissingCredentials
	}
	return a.mutateProfile(ctx, func(token string) (*models.User, error) {
		return a.backend.ChangePassword(ctx, token, models.ChangePasswordRequest{CurrentPassword: current, NewPassword: next})
	})
}

func (a *App) EditProfile(ctx context.Context, req models.ProfileEditRequest) error {
	err := a.mutateProfile(ctx, func(token string) (*models.User, error) {
		return a.backend.EditProfile(ctx, token, req)
	})
	if err != nil {
		return err
	}
	a.mu.Lock()
	if a.overlay.Kind == OverlayProfileEdit {
		a.overlay = NoOverlay()
	}
	a.mu.Unlock()
	return nil
}

// mutateProfile runs a profile mutation and replaces the session user with
// the server's copy, refetching the profile when the response omits it.
func (a *App) mutateProfile(ctx context.Context, call func(token string) (*models.User, error)) error {
	token, epoch, err := a.requireToken()
	if err != nil {
		return err
	}

	user, err := call(token)
	if err != nil {
		a.handleAuthError(ctx, err)
		return fail(err, ActionFailedText)
	}
	if user == nil {
		if user, err = a.backend.Profile(ctx, token); err != nil {
			a.handleAuthError(ctx, err)
			return fail(err, ActionFailedText)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.epoch == epoch {
		a.user = user
		a.applyGateLocked()
	}
	return nil
}

// ReloadProfile refetches the current user from the backend.
func (a *App) ReloadProfile(ctx context.Context) error {
	return a.mutateProfile(ctx, func(token string) (*models.User, error) {
		return a.backend.Profile(ctx, token)
	})
}
