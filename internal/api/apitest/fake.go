// Package apitest provides an in-memory Clubly backend for tests.
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"clubly/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

type account struct {
	user     models.User
	password string
}

type chat struct {
	id         string
	eventID    string
	clientID   string
	promoterID string
	createdAt  time.Time
}

type failure struct {
	status int
	detail string
}

// Backend is a fake Clubly REST backend served by httptest.
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	secret   []byte
	tokenTTL time.Duration
	seq      int

	accounts map[string]*account
	events   []models.Event
	orgs     []models.Organization
	chats    []*chat
	messages map[string][]models.Message
	bookings map[string][]models.Booking
	unread   map[string]int

	gates    map[string]chan struct{}
	failures map[string]failure
	requests []string
	bodies   map[string][]map[string]any
}

// New starts a fake backend. The server is closed with t.Cleanup by the caller.
func New() *Backend {
	b := &Backend{
		secret:   []byte("clubly-test-secret"),
		tokenTTL: 7 * 24 * time.Hour,
		accounts: make(map[string]*account),
		messages: make(map[string][]models.Message),
		bookings: make(map[string][]models.Booking),
		unread:   make(map[string]int),
		gates:    make(map[string]chan struct{}),
		failures: make(map[string]failure),
		bodies:   make(map[string][]map[string]any),
	}
	b.Server = httptest.NewServer(b.routes())
	return b
}

func (b *Backend) Close() { b.Server.Close() }

func (b *Backend) URL() string { return b.Server.URL }

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Post("/api/auth/login", b.login)
	r.Post("/api/auth/register", b.register)
	r.Get("/api/events", b.listEvents)
	r.Get("/api/events/{id}", b.getEvent)

	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)

		r.Get("/api/user/profile", b.profile)
		r.Post("/api/user/setup", b.setup)
		r.Post("/api/user/change-password", b.changePassword)
		r.Put("/api/user/profile/edit", b.editProfile)
		r.Get("/api/user/chats", b.listChats)
		r.Get("/api/user/bookings", b.listBookings)
		r.Get("/api/user/notifications/count", b.unreadCount)

		r.Post("/api/bookings", b.createBooking)
		r.Get("/api/chats/{id}/messages", b.chatMessages)
		r.Post("/api/chats/{id}/messages", b.sendMessage)

		r.Get("/api/dashboard/{view}", b.dashboard)

		r.Post("/api/events", b.createEvent)
		r.Put("/api/events/{id}", b.updateEvent)
		r.Put("/api/events/{id}/full-update", b.updateEventLimited)
		r.Put("/api/events/{id}/poster", b.updatePoster)
		r.Delete("/api/events/{id}", b.deleteEvent)

		r.Get("/api/organizations", b.listOrganizations)
		r.Post("/api/organizations", b.createOrganization)
		r.Get("/api/organizations/available-capo-promoters", b.availableCapos)
		r.Get("/api/organizations/{id}", b.getOrganization)
		r.Put("/api/organizations/{id}", b.updateOrganization)
		r.Put("/api/organizations/{id}/assign-capo-promoter", b.assignCapo)
		r.Get("/api/organizations/{id}/promoters", b.organizationPromoters)

		r.Post("/api/users/temporary-credentials", b.temporaryCredentials)
		r.Post("/api/users/search", b.searchUsers)
		r.Get("/api/users/{id}/profile", b.userProfile)
	})

	return r
}

// ---- seeding and inspection ----

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s%d", prefix, b.seq)
}

// AddUser stores a user with password and returns it with an id assigned.
func (b *Backend) AddUser(u models.User, password string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u.ID == "" {
		u.ID = b.nextID("U")
	}
	if u.Ruolo == "" {
		u.Ruolo = models.RoleCliente
	}
	b.accounts[u.ID] = &account{user: u, password: password}
	return u
}

func (b *Backend) AddEvent(e models.Event) models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e.ID == "" {
		e.ID = b.nextID("E")
	}
	if e.MaxPartySize == 0 {
		e.MaxPartySize = models.DefaultMaxPartySize
	}
	b.events = append(b.events, e)
	return e
}

func (b *Backend) AddOrganization(o models.Organization) models.Organization {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o.ID == "" {
		o.ID = b.nextID("O")
	}
	b.orgs = append(b.orgs, o)
	return o
}

// AddChat opens a chat between a client and a promoter for an event.
func (b *Backend) AddChat(eventID, clientID, promoterID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &chat{id: b.nextID("C"), eventID: eventID, clientID: clientID, promoterID: promoterID, createdAt: time.Now()}
	b.chats = append(b.chats, c)
	return c.id
}

func (b *Backend) AddMessage(chatID, senderID, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appendMessage(chatID, senderID, text)
}

func (b *Backend) SetUnread(userID string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unread[userID] = n
}

// Token issues a valid bearer token for userID.
func (b *Backend) Token(userID string) string {
	return b.sign(userID, time.Now().Add(b.tokenTTL))
}

// ExpiredToken issues a token whose exp is in the past.
func (b *Backend) ExpiredToken(userID string) string {
	return b.sign(userID, time.Now().Add(-time.Hour))
}

// Gate holds GET /api/chats/{chatID}/messages until the returned release is called.
func (b *Backend) Gate(chatID string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.gates[chatID] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// FailNext makes the next request "METHOD /path" fail with status and detail.
func (b *Backend) FailNext(methodPath string, status int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[methodPath] = failure{status: status, detail: detail}
}

// Requests returns "METHOD /path" for every request received so far.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// Count returns how many times "METHOD /path" was requested.
func (b *Backend) Count(methodPath string) int {
	n := 0
	for _, r := range b.Requests() {
		if r == methodPath {
			n++
		}
	}
	return n
}

// Bodies returns the decoded JSON bodies received for "METHOD /path".
func (b *Backend) Bodies(methodPath string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.bodies[methodPath]...)
}

func (b *Backend) Event(id string) (models.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

func (b *Backend) User(id string) (models.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[id]
	if !ok {
		return models.User{}, false
	}
	return acc.user, true
}

// ---- middleware ----

type ctxUserKey struct{}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		var body map[string]any
		if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
			raw := readAll(r)
			_ = json.Unmarshal([]byte(raw), &body)
			r.Body = newBody(raw)
		}

		b.mu.Lock()
		b.requests = append(b.requests, key)
		if body != nil {
			b.bodies[key] = append(b.bodies[key], body)
		}
		f, fail := b.failures[key]
		if fail {
			delete(b.failures, key)
		}
		b.mu.Unlock()

		if fail {
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" {
			writeDetail(w, http.StatusForbidden, "Not authenticated")
			return
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return b.secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			detail := "Token non valido"
			if errors.Is(err, jwt.ErrTokenExpired) {
				detail = "Token scaduto"
			}
			writeDetail(w, http.StatusUnauthorized, detail)
			return
		}
		id, _ := claims["id"].(string)

		b.mu.Lock()
		_, ok := b.accounts[id]
		b.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Token non valido")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), id)))
	})
}

func (b *Backend) sign(userID string, exp time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString(b.secret)
	if err != nil {
		panic(err)
	}
	return s
}
