package controller

import (
	"context"
	"testing"

	"clubly/internal/events"
	"clubly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingConfirmedOpensChat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var confirmed events.BookingPayload
	env.bus.Subscribe(events.EventBookingConfirmed, func(e *events.Event) error { return e.Decode(&confirmed) })

	app := env.loggedIn(t, 1, "giulia", "secret")
	assert.Equal(t, BookingFormOpen, app.SelectEvent(env.event))
	assert.Equal(t, OverlayBooking, app.Overlay().Kind)
	require.NoError(t, app.SetBookingType(models.BookingTavolo))
	require.NoError(t, app.SetPartySize(4))

	flow, err := app.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, BookingConfirmed, flow.State)
	require.NotNil(t, flow.Result)
	assert.Equal(t, "Marco", flow.Result.PromoterName)
	require.NotNil(t, flow.Chat)
	assert.True(t, flow.Chat.ForEvent("E123"))
	require.NotNil(t, flow.Chat.OtherParticipant)
	assert.Equal(t, "Marco", flow.Chat.OtherParticipant.Label())

	bodies := env.fake.Bodies("POST /api/bookings")
	require.Len(t, bodies, 1)
	assert.Len(t, bodies[0], 3)
	assert.Equal(t, "E123", bodies[0]["event_id"])
	assert.Equal(t, "tavolo", bodies[0]["booking_type"])
	assert.EqualValues(t, 4, bodies[0]["party_size"])

	view := app.Chats()
	require.Len(t, view.Chats, 1)
	assert.Equal(t, flow.Chat.ID, view.SelectedID)
	assert.False(t, view.Loading)
	assert.Equal(t, OverlayChat, app.Overlay().Kind)

	e, ok := env.deps.Catalog.Event("E123")
	require.True(t, ok)
	assert.Equal(t, 4, e.TablesAvailable)

	assert.Equal(t, "Marco", confirmed.PromoterName)
	assert.Equal(t, flow.Chat.ID, confirmed.ChatID)
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	app := env.loggedIn(t, 1, "giulia", "secret")

	_, err := app.Submit(ctx)
	assert.ErrorIs(t, err, ErrBookingNotOpen)

	app.SelectEvent(env.event)
	_, err = app.Submit(ctx)
	assert.ErrorIs(t, err, ErrInvalidBookingType)

	assert.ErrorIs(t, app.SetBookingType("vip"), ErrInvalidBookingType)
	assert.ErrorIs(t, app.SetPartySize(0), ErrInvalidPartySize)
	assert.ErrorIs(t, app.SetPartySize(models.DefaultMaxPartySize+1), ErrInvalidPartySize)
	assert.Equal(t, 1, app.Booking().PartySize)

	assert.Equal(t, 0, env.fake.Count("POST /api/bookings"))
	assert.Equal(t, BookingFormOpen, app.Booking().State)
}

func TestPartySizeUsesEventLimit(t *testing.T) {
	env := newTestEnv(t)
	app := env.loggedIn(t, 1, "giulia", "secret")

	small := env.event
	small.MaxPartySize = 6
	app.SelectEvent(small)
	require.NoError(t, app.SetPartySize(6))
	assert.ErrorIs(t, app.SetPartySize(7), ErrInvalidPartySize)
}

func TestBookingFailureShowsServerMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	full := env.fake.AddEvent(models.Event{Name: "Sold out", Date: "2024-06-02", StartTime: "23:00", Organization: "Nautilus"})

	app := env.loggedIn(t, 1, "giulia", "secret")
	app.SelectEvent(full)
	require.NoError(t, app.SetBookingType(models.BookingTavolo))

	flow, err := app.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, "Tavoli esauriti", err.Error())
	assert.Equal(t, BookingFailed, flow.State)
	assert.Equal(t, 1, env.fake.Count("POST /api/bookings"))
	assert.Equal(t, OverlayBooking, app.Overlay().Kind)

	require.NoError(t, app.SetBookingType(models.BookingLista))
	assert.Equal(t, BookingFormOpen, app.Booking().State)
}

func TestAnonymousBookingResumesAfterRegistration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	app := env.app(t, 1)

	assert.Equal(t, BookingAuthRequired, app.SelectEvent(env.event))
	overlay := app.Overlay()
	assert.Equal(t, OverlayAuth, overlay.Kind)
	assert.Equal(t, AuthLogin, overlay.AuthMode)

	require.NoError(t, app.OpenOverlay(AuthOverlay(AuthRegister)))
	require.NoError(t, app.Register(ctx, models.RegisterRequest{Nome: "Luca", Email: "luca@clubly.it", Username: "luca", Password: "pw"}))

	overlay = app.Overlay()
	assert.Equal(t, OverlayBooking, overlay.Kind)
	require.NotNil(t, overlay.Event)
	assert.Equal(t, "E123", overlay.Event.ID)
	assert.Equal(t, BookingFormOpen, app.Booking().State)
}

func TestSetupGateComesBeforePendingBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fake.AddUser(models.User{Nome: "Sara", Username: "sara", Email: "sara@clubly.it", NeedsSetup: true}, "pw")

	app := env.app(t, 1)
	app.SelectEvent(env.event)
	require.NoError(t, app.Login(ctx, "sara", "pw"))

	assert.Equal(t, OverlaySetup, app.Overlay().Kind)
	assert.Equal(t, BookingAuthRequired, app.Booking().State)
	assert.ErrorIs(t, app.SetBookingType(models.BookingLista), ErrBookingNotOpen)

	require.NoError(t, app.CompleteSetup(ctx, models.SetupRequest{Cognome: "Verdi", Username: "sara", DataNascita: "1999-09-09", Citta: "Torino"}))
	assert.Equal(t, OverlayBooking, app.Overlay().Kind)
	assert.Equal(t, BookingFormOpen, app.Booking().State)
}

func TestCloseOverlayAbandonsBooking(t *testing.T) {
	env := newTestEnv(t)
	app := env.loggedIn(t, 1, "giulia", "secret")

	app.SelectEvent(env.event)
	app.CloseOverlay()
	assert.Equal(t, BookingIdle, app.Booking().State)
	assert.Equal(t, OverlayNone, app.Overlay().Kind)
}

func TestUserBookings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	app := env.loggedIn(t, 1, "giulia", "secret")

	app.SelectEvent(env.event)
	require.NoError(t, app.SetBookingType(models.BookingLista))
	_, err := app.Submit(ctx)
	require.NoError(t, err)

	list, err := app.UserBookings(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.BookingLista, list[0].BookingType)
	require.NotNil(t, list[0].Event)
	assert.Equal(t, "Sabato Notte", list[0].Event.Name)
}
