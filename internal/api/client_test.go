package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clubly/internal/api/apitest"
	"clubly/internal/config"
	"clubly/internal/logging"
	"clubly/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(config.BackendConfig{BaseURL: baseURL, Timeout: 5 * time.Second}, nil)
}

func newFake(t *testing.T) *apitest.Backend {
	t.Helper()
	fake := apitest.New()
	t.Cleanup(fake.Close)
	return fake
}

func TestLoginAndProfile(t *testing.T) {
	fake := newFake(t)
	u := fake.AddUser(models.User{Nome: "Giulia", Email: "giulia@clubly.it", Username: "giulia"}, "secret")
	client := newTestClient(t, fake.URL())
	ctx := context.Background()

	auth, err := client.Login(ctx, models.LoginRequest{Login: "giulia", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, u.ID, auth.User.ID)

	profile, err := client.Profile(ctx, auth.Token)
	require.NoError(t, err)
	assert.Equal(t, "giulia@clubly.it", profile.Email)

	body := fake.Bodies("POST /api/auth/login")
	require.Len(t, body, 1)
	assert.Equal(t, "giulia", body[0]["login"])
}

func TestLoginFailure(t *testing.T) {
	fake := newFake(t)
	client := newTestClient(t, fake.URL())

	_, err := client.Login(context.Background(), models.LoginRequest{Login: "nobody", Password: "x"})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Credenziali non valide", ErrorMessage(err, "fallback"))
}

func TestProfileWithoutToken(t *testing.T) {
	fake := newFake(t)
	client := newTestClient(t, fake.URL())

	_, err := client.Profile(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusForbidden))
}

func TestRegisterDefaultsRole(t *testing.T) {
	fake := newFake(t)
	client := newTestClient(t, fake.URL())

	auth, err := client.Register(context.Background(), models.RegisterRequest{
		Nome: "Luca", Cognome: "Bianchi", Email: "luca@clubly.it", Username: "luca", Password: "pw",
		DataNascita: "2000-01-01", Citta: "Milano",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCliente, auth.User.Ruolo)

	_, err = client.Register(context.Background(), models.RegisterRequest{Email: "luca@clubly.it", Username: "luca2"})
	require.Error(t, err)
	assert.Equal(t, "Utente già esistente", ErrorMessage(err, ""))
}

func TestCreateBookingOmitsPromoter(t *testing.T) {
	fake := newFake(t)
	fake.AddUser(models.User{Nome: "Marco", Username: "marco", Ruolo: models.RolePromoter, Organization: "Night Events"}, "pw")
	client := fake.AddUser(models.User{Nome: "Anna", Username: "anna"}, "pw")
	event := fake.AddEvent(models.Event{Name: "NEON NIGHTS", Organization: "Night Events", TotalTables: 20, TablesAvailable: 15, MaxPartySize: 8})

	c := newTestClient(t, fake.URL())
	res, err := c.CreateBooking(context.Background(), fake.Token(client.ID), models.BookingRequest{
		EventID: event.ID, BookingType: models.BookingTavolo, PartySize: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "Marco", res.PromoterName)
	assert.NotEmpty(t, res.ChatID)

	bodies := fake.Bodies("POST /api/bookings")
	require.Len(t, bodies, 1)
	assert.Len(t, bodies[0], 3)
	assert.Contains(t, bodies[0], "event_id")
	assert.Contains(t, bodies[0], "booking_type")
	assert.Contains(t, bodies[0], "party_size")

	updated, _ := fake.Event(event.ID)
	assert.Equal(t, 14, updated.TablesAvailable)
}

func TestCatalogCache(t *testing.T) {
	fake := newFake(t)
	fake.AddUser(models.User{Nome: "Marco", Ruolo: models.RolePromoter}, "pw")
	user := fake.AddUser(models.User{Nome: "Anna"}, "pw")
	event := fake.AddEvent(models.Event{Name: "TECHNO UNDERGROUND", TablesAvailable: 10})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := newTestClient(t, fake.URL())
	c.UseRedisCache(rdb, time.Minute)
	ctx := context.Background()

	events, err := c.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	_, err = c.ListEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Count("GET /api/events"), "second read must come from cache")

	_, err = c.CreateBooking(ctx, fake.Token(user.ID), models.BookingRequest{EventID: event.ID, BookingType: models.BookingTavolo, PartySize: 2})
	require.NoError(t, err)
	assert.False(t, mr.Exists(catalogCacheKey))

	events, err = c.ListEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Count("GET /api/events"))
	assert.Equal(t, 9, events[0].TablesAvailable)

	_, err = c.RefreshEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, fake.Count("GET /api/events"))
}

func TestChatsAndMessages(t *testing.T) {
	fake := newFake(t)
	promoter := fake.AddUser(models.User{Nome: "Marco", Username: "marco", Ruolo: models.RolePromoter}, "pw")
	user := fake.AddUser(models.User{Nome: "Anna", Username: "anna"}, "pw")
	event := fake.AddEvent(models.Event{Name: "RED PASSION"})
	chatID := fake.AddChat(event.ID, user.ID, promoter.ID)

	c := newTestClient(t, fake.URL())
	ctx := context.Background()
	token := fake.Token(user.ID)

	chats, err := c.ListChats(ctx, token)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "marco", chats[0].OtherParticipant.Username)
	assert.True(t, chats[0].ForEvent(event.ID))

	id, err := c.SendMessage(ctx, token, models.SendMessageRequest{ChatID: chatID, SenderID: user.ID, SenderRole: user.Ruolo, Message: "Ciao!"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs, err := c.ChatMessages(ctx, token, chatID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Ciao!", msgs[0].Message)

	n, err := c.UnreadCount(ctx, fake.Token(promoter.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDashboardRejectsMainView(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.Dashboard(context.Background(), "token", models.ViewMain)
	assert.Error(t, err)
}

func TestDashboardFounder(t *testing.T) {
	fake := newFake(t)
	founder := fake.AddUser(models.User{Nome: "Admin", Ruolo: models.RoleClublyFounder}, "admin123")
	fake.AddEvent(models.Event{Name: "NEON NIGHTS"})
	fake.AddOrganization(models.Organization{Name: "Night Events Milano"})

	c := newTestClient(t, fake.URL())
	dash, err := c.Dashboard(context.Background(), fake.Token(founder.ID), models.ViewClublyFounder)
	require.NoError(t, err)
	assert.Len(t, dash.Events, 1)
	assert.Len(t, dash.Organizations, 1)
	assert.Equal(t, 1, dash.Stats["users"])
}

func TestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL+"/")
	ctx := logging.ContextWithRequestID(context.Background(), "req-1")
	_, err := c.ListChats(ctx, "abc")
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", got.Get("Authorization"))
	assert.Equal(t, "req-1", got.Get("X-Request-ID"))

	_, err = c.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Get("Authorization"), "public endpoints carry no token")
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "detail string", status: 400, body: `{"detail":"Tavoli esauriti"}`, message: "Tavoli esauriti"},
		{name: "detail list", status: 422, body: `{"detail":[{"msg":"field required"},{"msg":"value is not an integer"}]}`, message: "field required; value is not an integer"},
		{name: "message", status: 400, body: `{"message":"Errore"}`, message: "Errore"},
		{name: "empty", status: 500, body: ``, message: ""},
		{name: "html", status: 502, body: `<html>bad gateway</html>`, message: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).ListEvents(context.Background())
			require.Error(t, err)
			assert.True(t, IsStatus(err, tt.status))
			assert.Equal(t, tt.message, ErrorMessage(err, ""))
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := newTestClient(t, srv.URL).ListEvents(context.Background())
	require.Error(t, err)
	assert.False(t, IsStatus(err, 0))
	assert.Equal(t, "fallback", ErrorMessage(err, "fallback"))
}

func TestRateLimiterPerToken(t *testing.T) {
	l := newRateLimiter(config.BackendRateLimitConfig{RPS: 1, Burst: 1})
	a := l.getLimiter("a")
	assert.Same(t, a, l.getLimiter("a"))
	assert.NotSame(t, a, l.getLimiter("b"))

	l.forget("a")
	assert.NotSame(t, a, l.getLimiter("a"))

	disabled := newRateLimiter(config.BackendRateLimitConfig{})
	assert.NoError(t, disabled.wait(context.Background(), ""))
}
