package controller

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"clubly/internal/events"
	"clubly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartupWithoutToken(t *testing.T) {
	env := newTestEnv(t)
	app := env.app(t, 1)

	assert.False(t, app.Authenticated())
	assert.Nil(t, app.User())
	assert.Equal(t, 0, env.fake.Count("GET /api/user/profile"))
}

func TestStartupRestoresSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.db.SetToken(ctx, 1, env.fake.Token(env.client.ID)))

	app := env.app(t, 1)
	require.True(t, app.Authenticated())
	assert.Equal(t, env.client.ID, app.User().ID)
	assert.Equal(t, GateNone, app.Gate())
	assert.Equal(t, OverlayNone, app.Overlay().Kind)
}

func TestStartupExpiredTokenClearedWithoutRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.db.SetToken(ctx, 1, env.fake.ExpiredToken(env.client.ID)))

	app := env.app(t, 1)
	assert.False(t, app.Authenticated())
	assert.Equal(t, 0, env.fake.Count("GET /api/user/profile"))

	token, err := env.db.GetToken(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStartupRejectedTokenCleared(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.db.SetToken(ctx, 1, env.fake.Token("ghost")))

	app := env.app(t, 1)
	assert.False(t, app.Authenticated())
	assert.Equal(t, 1, env.fake.Count("GET /api/user/profile"))

	token, _ := env.db.GetToken(ctx, 1)
	assert.Empty(t, token)
}

func TestStartupTransportErrorKeepsToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.db.SetToken(ctx, 1, env.fake.Token(env.client.ID)))
	env.fake.FailNext("GET /api/user/profile", http.StatusBadGateway, "")

	app := NewApp(1, env.deps)
	require.Error(t, app.Startup(ctx))
	assert.False(t, app.Authenticated())

	token, _ := env.db.GetToken(ctx, 1)
	assert.NotEmpty(t, token)
}

func TestRegistryRetriesFailedRestore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.db.SetToken(ctx, 1, env.fake.Token(env.client.ID)))
	env.fake.FailNext("GET /api/user/profile", http.StatusBadGateway, "")

	reg := NewRegistry(env.deps)
	assert.False(t, reg.Get(ctx, 1).Authenticated())

	app := reg.Get(ctx, 1)
	assert.True(t, app.Authenticated())
	assert.Equal(t, "Giulia", app.User().Nome)
	assert.Equal(t, 2, env.fake.Count("GET /api/user/profile"))

	reg.Get(ctx, 1)
	assert.Equal(t, 2, env.fake.Count("GET /api/user/profile"), "a restored session is not reloaded")
}

func TestRegistrySkipsRestoreAfterLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.db.SetToken(ctx, 1, env.fake.Token(env.client.ID)))
	env.fake.FailNext("GET /api/user/profile", http.StatusBadGateway, "")

	reg := NewRegistry(env.deps)
	app := reg.Get(ctx, 1)
	require.NoError(t, app.Login(ctx, "giulia", "secret"))
	profiles := env.fake.Count("GET /api/user/profile")

	assert.Same(t, app, reg.Get(ctx, 1))
	assert.True(t, app.Authenticated())
	assert.Equal(t, profiles, env.fake.Count("GET /api/user/profile"))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var got events.SessionPayload
	env.bus.Subscribe(events.EventLoggedIn, func(e *events.Event) error { return e.Decode(&got) })

	app := env.app(t, 1)
	require.NoError(t, app.Login(ctx, " giulia@clubly.it ", "secret"))

	assert.True(t, app.Authenticated())
	assert.Equal(t, "Giulia", app.User().Nome)
	assert.Equal(t, env.client.ID, got.UserID)

	token, err := env.db.GetToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, app.Token(), token)
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	app := env.app(t, 1)

	assert.ErrorIs(t, app.Login(ctx, "  ", "x"), ErrMissingCredentials)
	assert.Equal(t, 0, env.fake.Count("POST /api/auth/login"))

	err := app.Login(ctx, "giulia", "wrong")
	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "Credenziali non valide", failure.Message)

	env.fake.FailNext("POST /api/auth/login", http.StatusInternalServerError, "")
	err = app.Login(ctx, "giulia", "secret")
	require.Error(t, err)
	assert.Equal(t, LoginFailedText, err.Error())
	assert.False(t, app.Authenticated())
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	app := env.app(t, 1)

	assert.ErrorIs(t, app.Register(ctx, models.RegisterRequest{Email: "x@y.z"}), ErrMissingFields)

	err := app.Register(ctx, models.RegisterRequest{Nome: "Altra", Email: "giulia@clubly.it", Username: "altra", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, "Utente già esistente", err.Error())

	env.fake.FailNext("POST /api/auth/register", http.StatusInternalServerError, "")
	err = app.Register(ctx, models.RegisterRequest{Nome: "Luca", Email: "luca@clubly.it", Username: "luca", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, RegisterFailedText, err.Error())

	require.NoError(t, app.Register(ctx, models.RegisterRequest{Nome: "Luca", Email: "luca@clubly.it", Username: "luca", Password: "pw"}))
	assert.Equal(t, models.RoleCliente, app.User().Ruolo)
}

func TestGatesAreOrdered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fake.AddUser(models.User{Nome: "Nuovo", Username: "nuovo", Email: "nuovo@clubly.it", Ruolo: models.RolePromoter, NeedsSetup: true, NeedsPasswordChange: true}, "temp")

	app := env.loggedIn(t, 1, "nuovo", "temp")
	assert.Equal(t, GateSetup, app.Gate())
	assert.Equal(t, OverlaySetup, app.Overlay().Kind)
	assert.ErrorIs(t, app.OpenOverlay(ChatOverlay()), ErrGateActive)
	app.CloseOverlay()
	assert.Equal(t, OverlaySetup, app.Overlay().Kind)

	require.NoError(t, app.CompleteSetup(ctx, models.SetupRequest{Cognome: "Rossi", Username: "nuovo", DataNascita: "1990-01-01", Citta: "Milano"}))
	assert.Equal(t, GatePasswordChange, app.Gate())
	assert.Equal(t, OverlayPasswordChange, app.Overlay().Kind)

	err := app.ChangePassword(ctx, "wrong", "new")
	require.Error(t, err)
	assert.Equal(t, "Password attuale non corretta", err.Error())
	assert.Equal(t, OverlayPasswordChange, app.Overlay().Kind)

	require.NoError(t, app.ChangePassword(ctx, "temp", "definitiva"))
	assert.Equal(t, GateNone, app.Gate())
	assert.Equal(t, OverlayNone, app.Overlay().Kind)
	assert.Equal(t, "Rossi", app.User().Cognome)
}

func TestEditProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	app := env.loggedIn(t, 1, "giulia", "secret")
	require.NoError(t, app.OpenOverlay(ProfileEditOverlay()))

	require.NoError(t, app.EditProfile(ctx, models.ProfileEditRequest{Nome: "Giulia B.", Username: "giuliab", Biografia: "dj", Citta: "Roma"}))
	assert.Equal(t, "giuliab", app.User().Username)
	assert.Equal(t, OverlayNone, app.Overlay().Kind)
}

func TestLogoutClearsSessionState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	chatID := env.fake.AddChat(env.event.ID, env.client.ID, env.marco.ID)
	env.fake.AddMessage(chatID, env.marco.ID, "Ciao!")

	app := env.loggedIn(t, 1, "giulia", "secret")
	require.NoError(t, app.LoadChats(ctx))
	require.NoError(t, app.SelectChat(ctx, chatID))
	app.SetDraft("a domani")
	app.SelectEvent(env.event)

	requests := len(env.fake.Requests())
	require.NoError(t, app.Logout(ctx))
	assert.Len(t, env.fake.Requests(), requests, "logout does not call the backend")

	assert.False(t, app.Authenticated())
	assert.Empty(t, app.Token())
	view := app.Chats()
	assert.Empty(t, view.Chats)
	assert.Empty(t, view.SelectedID)
	assert.Empty(t, view.Messages)
	assert.Empty(t, view.Draft)
	assert.Nil(t, app.Dashboard().Data)
	assert.Equal(t, BookingIdle, app.Booking().State)
	assert.Equal(t, OverlayNone, app.Overlay().Kind)

	token, _ := env.db.GetToken(ctx, 1)
	assert.Empty(t, token)

	assert.ErrorIs(t, app.LoadChats(ctx), ErrNotAuthenticated)
}

func TestUnauthorizedResponseEndsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	app := env.loggedIn(t, 1, "giulia", "secret")

	env.fake.FailNext("GET /api/user/chats", http.StatusUnauthorized, "Token scaduto")
	err := app.LoadChats(ctx)
	require.Error(t, err)
	assert.Equal(t, "Token scaduto", err.Error())
	assert.False(t, app.Authenticated())
}
