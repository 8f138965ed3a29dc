package controller

import (
	"context"
	"sync"
)

// Registry keeps one App per Telegram user.
type Registry struct {
	deps Deps

	mu   sync.Mutex
	apps map[int64]*App
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, apps: make(map[int64]*App)}
}

// Get returns the App of telegramID, creating it and restoring its stored
// session on first access. A failed restore is logged, leaves the user
// anonymous and is tried again on the next access.
func (r *Registry) Get(ctx context.Context, telegramID int64) *App {
	r.mu.Lock()
	app, ok := r.apps[telegramID]
	if !ok {
		app = NewApp(telegramID, r.deps)
		r.apps[telegramID] = app
	}
	r.mu.Unlock()

	app.startMu.Lock()
	defer app.startMu.Unlock()
	if app.restored {
		return app
	}
	if app.Authenticated() {
		// logged in before the stored session could be restored
		app.restored = true
		return app
	}
	if err := app.Startup(ctx); err != nil {
		app.log(ctx).Error().Err(err).Msg("failed to restore session")
		return app
	}
	app.restored = true
	return app
}

// Peek returns an existing App without creating one.
func (r *Registry) Peek(telegramID int64) (*App, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[telegramID]
	return app, ok
}

// Restore starts the stored sessions of every known user.
func (r *Registry) Restore(ctx context.Context) (int, error) {
	ids, err := r.deps.Tokens.TelegramIDs(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, id := range ids {
		if r.Get(ctx, id).Authenticated() {
			restored++
		}
	}
	return restored, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}
