// Package controller holds the per-user application state of the Clubly
// client: session, booking flow, messaging, dashboard data and the overlay
// currently shown. Front ends only read snapshots and call operations.
package controller

import (
	"context"
	"sync"
	"time"

	"clubly/internal/api"
	"clubly/internal/domain"
	"clubly/internal/models"

	"github.com/rs/zerolog"
)

// Deps are the collaborators shared by every App.
type Deps struct {
	Backend   domain.Backend
	Tokens    domain.TokenStore
	Catalog   *Catalog
	Publisher domain.EventPublisher
	Logger    *zerolog.Logger
	Now       func() time.Time
}

// App is the state store of one Telegram user.
type App struct {
	telegramID int64
	backend    domain.Backend
	tokens     domain.TokenStore
	catalog    *Catalog
	publisher  domain.EventPublisher
	logger     zerolog.Logger
	now        func() time.Time

	// startMu serializes Startup; restored is set once it succeeded or
	// found nothing to restore.
	startMu  sync.Mutex
	restored bool

	mu sync.Mutex
	// epoch changes on every login and logout; completions of requests
	// started under another epoch are dropped.
	epoch   uint64
	token   string
	user    *models.User
	overlay Overlay
	booking BookingFlow

	chats           []models.Chat
	selectedChat    string
	messages        []models.Message
	loadingMessages bool
	chatGen         uint64
	draft           string
	sending         bool
	unread          int

	view             models.DashboardView
	dashboard        *models.Dashboard
	dashboardLoading bool
	dashboardErr     error
	dashboardGen     uint64
}

// NewApp builds the store for telegramID. Call Startup before use.
func NewApp(telegramID int64, deps Deps) *App {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := zerolog.Nop()
	if deps.Logger != nil {
		logger = deps.Logger.With().Int64("telegram_id", telegramID).Logger()
	}
	return &App{
		telegramID: telegramID,
		backend:    deps.Backend,
		tokens:     deps.Tokens,
		catalog:    deps.Catalog,
		publisher:  deps.Publisher,
		logger:     logger,
		now:        now,
		view:       models.ViewMain,
	}
}

func (a *App) TelegramID() int64 { return a.telegramID }

// Catalog returns the shared event catalog.
func (a *App) Catalog() *Catalog { return a.catalog }

// log prefers the request-scoped logger carried by ctx.
func (a *App) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.logger
}

func (a *App) publish(eventType string, payload interface{}) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.PublishJSON(eventType, payload); err != nil {
		a.logger.Error().Err(err).Str("event", eventType).Msg("event handler failed")
	}
}

// Overlay returns the overlay currently shown.
func (a *App) Overlay() Overlay {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.overlay
}

// OpenOverlay replaces the current overlay. Profile gates cannot be replaced.
func (a *App) OpenOverlay(o Overlay) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.overlay.IsGate() && o.Kind != a.overlay.Kind {
		return ErrGateActive
	}
	a.overlay = o
	return nil
}

// CloseOverlay dismisses the current overlay unless it is a profile gate.
// Closing the booking form abandons the booking flow.
func (a *App) CloseOverlay() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.overlay.IsGate() {
		return
	}
	if a.overlay.Kind == OverlayBooking || a.overlay.Kind == OverlayAuth {
		if a.booking.State != BookingSubmitting {
			a.booking = BookingFlow{}
		}
	}
	a.overlay = NoOverlay()
}

func (a *App) requireToken() (string, uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == "" || a.user == nil {
		return "", 0, ErrNotAuthenticated
	}
	return a.token, a.epoch, nil
}

// handleAuthError ends the session when the backend rejected the token.
func (a *App) handleAuthError(ctx context.Context, err error) {
	if !api.IsUnauthorized(err) {
		return
	}
	a.log(ctx).Warn().Err(err).Msg("token rejected by backend, ending session")
	if lerr := a.Logout(ctx); lerr != nil {
		a.log(ctx).Error().Err(lerr).Msg("failed to clear rejected token")
	}
}
