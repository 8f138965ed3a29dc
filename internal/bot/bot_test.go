package bot

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"clubly/internal/api"
	"clubly/internal/api/apitest"
	"clubly/internal/config"
	"clubly/internal/controller"
	"clubly/internal/database"
	"clubly/internal/domain"
	"clubly/internal/events"
	"clubly/internal/models"
	"clubly/internal/repository"
	"clubly/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentItem struct {
	kind     string
	chatID   int64
	text     string
	name     string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

type mockTelegramService struct {
	domain.TelegramService
	updatesChan chan tgbotapi.Update

	mu      sync.Mutex
	sent    []sentItem
	deleted int
	nextID  int
}

func (m *mockTelegramService) record(item sentItem) tgbotapi.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, item)
	m.nextID++
	return tgbotapi.Message{MessageID: m.nextID}
}

func (m *mockTelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updatesChan
}

func (m *mockTelegramService) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "clubly_test_bot"}
}

func (m *mockTelegramService) StopReceivingUpdates() {}

func (m *mockTelegramService) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		item := sentItem{kind: "message", chatID: v.ChatID, text: v.Text}
		if kb, ok := v.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			item.keyboard = &kb
		}
		return m.record(item), nil
	case tgbotapi.DocumentConfig:
		item := sentItem{kind: "document", chatID: v.ChatID, text: v.Caption}
		if f, ok := v.File.(tgbotapi.FileReader); ok {
			item.name = f.Name
		}
		return m.record(item), nil
	}
	return m.record(sentItem{kind: "other"}), nil
}

func (m *mockTelegramService) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if _, ok := c.(tgbotapi.DeleteMessageConfig); ok {
		m.mu.Lock()
		m.deleted++
		m.mu.Unlock()
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockTelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	return m.record(sentItem{kind: "message", chatID: chatID, text: text}), nil
}

func (m *mockTelegramService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	return m.record(sentItem{kind: "message", chatID: chatID, text: text}), nil
}

func (m *mockTelegramService) EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return m.record(sentItem{kind: "edit", chatID: chatID, text: text, keyboard: keyboard}), nil
}

func (m *mockTelegramService) SendPhoto(chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error) {
	return m.record(sentItem{kind: "photo", chatID: chatID, name: name, text: caption}), nil
}

func (m *mockTelegramService) SendPhotoURL(chatID int64, url, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return m.record(sentItem{kind: "photo_url", chatID: chatID, name: url, text: caption}), nil
}

func (m *mockTelegramService) SendDocument(chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error) {
	return m.record(sentItem{kind: "document", chatID: chatID, name: name, text: caption}), nil
}

func (m *mockTelegramService) AnswerCallback(callbackID, text string) error {
	return nil
}

func (m *mockTelegramService) items() []sentItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentItem(nil), m.sent...)
}

func (m *mockTelegramService) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// texts joins every text sent so far, for substring assertions.
func (m *mockTelegramService) texts() string {
	var sb strings.Builder
	for _, it := range m.items() {
		sb.WriteString(it.text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *mockTelegramService) ofKind(kind string) []sentItem {
	var out []sentItem
	for _, it := range m.items() {
		if it.kind == kind {
			out = append(out, it)
		}
	}
	return out
}

func (m *mockTelegramService) lastKeyboard() *tgbotapi.InlineKeyboardMarkup {
	items := m.items()
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].keyboard != nil {
			return items[i].keyboard
		}
	}
	return nil
}

type testEnv struct {
	bot      *Bot
	tg       *mockTelegramService
	fake     *apitest.Backend
	registry *controller.Registry
	cfg      *config.Config
	msgID    int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	fake := apitest.New()
	t.Cleanup(fake.Close)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		Telegram: config.TelegramConfig{BotToken: "test"},
		Backend:  config.BackendConfig{BaseURL: fake.URL(), Timeout: 5 * time.Second},
		Exports:  config.ExportConfig{Path: t.TempDir()},
		Bot: config.BotConfig{
			PaginationSize:    5,
			RateLimitMessages: 100,
			RateLimitWindow:   60,
			Timezone:          "UTC",
		},
	}

	backend := api.NewClient(cfg.Backend, &logger)
	registry := controller.NewRegistry(controller.Deps{
		Backend:   backend,
		Tokens:    db,
		Catalog:   controller.NewCatalog(backend, &logger),
		Publisher: events.NewEventBus(),
		Logger:    &logger,
	})
	state := service.NewStateService(repository.NewMemoryStateRepository(time.Hour), &logger)
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update, 1)}

	b, err := NewBot(tg, cfg, state, registry, nil, nil, &logger)
	require.NoError(t, err)

	fake.AddUser(models.User{Nome: "Marco", Username: "marco", Email: "marco@clubly.it", Ruolo: models.RolePromoter, Organization: "Nautilus"}, "pw-marco")
	fake.AddUser(models.User{Nome: "Giulia", Cognome: "Bianchi", Username: "giulia", Email: "giulia@clubly.it"}, "secret")
	fake.AddEvent(models.Event{
		ID:              "E123",
		Name:            "Sabato Notte",
		Date:            "2024-06-01",
		StartTime:       "23:00",
		Location:        "Nautilus Club",
		Organization:    "Nautilus",
		TotalTables:     10,
		TablesAvailable: 5,
	})

	return &testEnv{bot: b, tg: tg, fake: fake, registry: registry, cfg: cfg}
}

func (e *testEnv) say(userID int64, text string) {
	e.msgID++
	msg := &tgbotapi.Message{
		MessageID: e.msgID,
		From:      &tgbotapi.User{ID: userID, UserName: "tester"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	e.bot.processUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

func (e *testEnv) press(userID int64, data string) {
	e.bot.processUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: 42, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}})
}

func (e *testEnv) app(userID int64) *controller.App {
	return e.registry.Get(context.Background(), userID)
}

func (e *testEnv) login(t *testing.T, userID int64, identifier, password string) {
	t.Helper()
	e.say(userID, "/login")
	e.say(userID, identifier)
	e.say(userID, password)
	require.True(t, e.app(userID).Authenticated())
}

func hasButton(kb *tgbotapi.InlineKeyboardMarkup, data string) bool {
	if kb == nil {
		return false
	}
	for _, r := range kb.InlineKeyboard {
		for _, btn := range r {
			if btn.CallbackData != nil && *btn.CallbackData == data {
				return true
			}
		}
	}
	return false
}

func TestNewBotRequiresDeps(t *testing.T) {
	_, err := NewBot(nil, &config.Config{}, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestBotStart(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.bot.Start(ctx)
		close(done)
	}()

	env.tg.updatesChan <- tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 1, UserName: "tester"},
		Chat:     &tgbotapi.Chat{ID: 1},
		Text:     "/start",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}}

	assert.Eventually(t, func() bool {
		return strings.Contains(env.tg.texts(), "Benvenuto su *Clubly*")
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestLoginForm(t *testing.T) {
	env := newTestEnv(t)

	env.say(1, "/login")
	assert.Contains(t, env.tg.texts(), "Email o username")
	assert.Equal(t, controller.OverlayAuth, env.app(1).Overlay().Kind)

	env.say(1, "giulia@clubly.it")
	assert.Contains(t, env.tg.texts(), "Password")

	env.say(1, "secret")
	app := env.app(1)
	require.True(t, app.Authenticated())
	assert.Equal(t, "giulia", app.User().Username)
	assert.Equal(t, controller.OverlayNone, app.Overlay().Kind)
	assert.Contains(t, env.tg.texts(), "Benvenuto, *Giulia*")
	assert.Equal(t, 1, env.tg.deleted, "password message is removed from the chat")

	state, err := env.bot.stateService.GetUserState(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestLoginFailureKeepsAnswers(t *testing.T) {
	env := newTestEnv(t)

	env.say(1, "/login")
	env.say(1, "giulia")
	env.say(1, "wrong")

	assert.False(t, env.app(1).Authenticated())
	assert.Contains(t, env.tg.texts(), "Credenziali non valide")
	kb := env.tg.lastKeyboard()
	assert.True(t, hasButton(kb, "form:retry"))
	assert.True(t, hasButton(kb, "form:restart"))

	state, err := env.bot.stateService.GetUserState(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.StepFormSubmit, state.CurrentStep)

	// Correggi: the identifier is kept, the password is asked again
	env.tg.reset()
	env.press(1, "form:restart")
	assert.Contains(t, env.tg.texts(), "Valore attuale: giulia")
	env.say(1, "-")
	env.say(1, "secret")
	assert.True(t, env.app(1).Authenticated())
}

func TestSecretAnswersStayOutOfFormState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.say(1, "/login")
	env.say(1, "giulia")
	env.say(1, "wrong-pass")
	require.False(t, env.app(1).Authenticated())

	state, err := env.bot.stateService.GetUserState(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "giulia", state.TempData["identifier"])
	assert.NotContains(t, state.TempData, "password")
	assert.False(t, env.bot.secrets.has(1, "password"), "a submit attempt consumes the password")

	// Riprova asks for the password again instead of resending the old one
	env.tg.reset()
	env.press(1, "form:retry")
	assert.Contains(t, env.tg.texts(), "inserisci di nuovo la password")
	assert.Equal(t, 1, env.fake.Count("POST /api/auth/login"))

	state, err = env.bot.stateService.GetUserState(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.StepLoginPassword, state.CurrentStep)

	env.say(1, "secret")
	assert.True(t, env.app(1).Authenticated())
	assert.False(t, env.bot.secrets.has(1, "password"))
}

func TestSecretAnswersMidForm(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fake.AddUser(models.User{Nome: "Paolo", Username: "paolo", Email: "paolo@clubly.it", Ruolo: models.RolePromoter, NeedsPasswordChange: true}, "temp123")

	env.login(t, 8, "paolo", "temp123")
	env.say(8, "temp123")

	state, err := env.bot.stateService.GetUserState(ctx, 8)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.StepPasswordNew, state.CurrentStep)
	assert.NotContains(t, state.TempData, "current")
	assert.True(t, env.bot.secrets.has(8, "current"))

	env.say(8, "/logout")
	assert.False(t, env.bot.secrets.has(8, "current"))
}

func TestFormValidation(t *testing.T) {
	env := newTestEnv(t)

	env.say(5, "/register")
	env.say(5, "Luca")
	env.say(5, "-")
	env.say(5, "not-an-email")
	assert.Contains(t, env.tg.texts(), "Indirizzo email non valido")

	env.say(5, "luca@clubly.it")
	env.say(5, "luca")
	env.say(5, "123")
	assert.Contains(t, env.tg.texts(), "La password deve avere almeno 6 caratteri")

	env.say(5, "lucapass")
	env.say(5, "31/12/1999")
	env.say(5, "-")

	app := env.app(5)
	require.True(t, app.Authenticated())
	assert.Equal(t, models.RoleCliente, app.User().Ruolo)
	body := env.fake.Bodies("POST /api/auth/register")
	require.Len(t, body, 1)
	assert.Equal(t, "1999-12-31", body[0]["data_nascita"])
	assert.Equal(t, "", body[0]["cognome"])
}

func TestCancelForm(t *testing.T) {
	env := newTestEnv(t)

	env.say(1, "/login")
	env.say(1, "/cancel")

	assert.Contains(t, env.tg.texts(), "Operazione annullata")
	assert.Equal(t, controller.OverlayNone, env.app(1).Overlay().Kind)
	state, _ := env.bot.stateService.GetUserState(context.Background(), 1)
	assert.Nil(t, state)
}

func TestEventsAndCalendar(t *testing.T) {
	env := newTestEnv(t)

	env.say(1, "/events")
	assert.Contains(t, env.tg.texts(), "Sabato Notte")
	assert.True(t, hasButton(env.tg.lastKeyboard(), "event:E123"))

	env.press(1, "event:E123")
	kb := env.tg.lastKeyboard()
	assert.True(t, hasButton(kb, "book:E123"))
	assert.True(t, hasButton(kb, "ics:E123"))
	assert.False(t, hasButton(kb, "admin:edit_event:E123"), "anonymous users see no staff actions")

	env.press(1, "ics:E123")
	docs := env.tg.ofKind("document")
	require.Len(t, docs, 1)
	assert.Equal(t, "clubly_E123.ics", docs[0].name)
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, 1, "giulia", "secret")

	env.press(1, "book:E123")
	assert.Contains(t, env.tg.texts(), "Prenotazione")
	assert.Equal(t, controller.BookingFormOpen, env.app(1).Booking().State)

	env.press(1, "btype:tavolo")
	env.press(1, "party:3")
	flow := env.app(1).Booking()
	assert.Equal(t, models.BookingTavolo, flow.Type)
	assert.Equal(t, 3, flow.PartySize)

	env.press(1, "book_submit")

	assert.Contains(t, env.tg.texts(), "Prenotazione confermata")
	photos := env.tg.ofKind("photo")
	require.Len(t, photos, 1)
	assert.Equal(t, "clubly_pass.png", photos[0].name)

	app := env.app(1)
	assert.Equal(t, controller.BookingConfirmed, app.Booking().State)
	assert.Equal(t, controller.OverlayChat, app.Overlay().Kind)
	assert.NotEmpty(t, app.Chats().SelectedID)

	e, ok := env.fake.Event("E123")
	require.True(t, ok)
	assert.Equal(t, 4, e.TablesAvailable)

	// Text typed in the open chat goes to the promoter
	env.say(1, "Ciao, arriviamo alle 23:30")
	sent := 0
	for _, r := range env.fake.Requests() {
		if strings.HasPrefix(r, "POST /api/chats/") && strings.HasSuffix(r, "/messages") {
			sent++
		}
	}
	assert.Equal(t, 1, sent)
	assert.Contains(t, env.tg.texts(), "*Tu*: Ciao, arriviamo alle 23:30")
}

func TestAnonymousBookingResumesAfterLogin(t *testing.T) {
	env := newTestEnv(t)

	env.press(1, "book:E123")
	assert.True(t, hasButton(env.tg.lastKeyboard(), "auth:login"))
	assert.Equal(t, controller.BookingAuthRequired, env.app(1).Booking().State)

	env.press(1, "auth:login")
	env.say(1, "giulia")
	env.say(1, "secret")

	app := env.app(1)
	assert.Equal(t, controller.BookingFormOpen, app.Booking().State)
	assert.Equal(t, controller.OverlayBooking, app.Overlay().Kind)
	assert.True(t, hasButton(env.tg.lastKeyboard(), "book_submit"))
}

func TestBookingFailureShowsRetry(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, 1, "giulia", "secret")
	env.fake.FailNext("POST /api/bookings", 400, "Evento al completo")

	env.press(1, "book:E123")
	env.press(1, "btype:lista")
	env.press(1, "book_submit")

	assert.Equal(t, controller.BookingFailed, env.app(1).Booking().State)
	assert.Contains(t, env.tg.texts(), "Evento al completo")
	assert.True(t, hasButton(env.tg.lastKeyboard(), "book_submit"))
	assert.Empty(t, env.tg.ofKind("photo"))
}

func TestSetupGate(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddUser(models.User{Nome: "Sara", Username: "sara", Email: "sara@clubly.it", NeedsSetup: true}, "temp123")

	env.login(t, 7, "sara", "temp123")
	app := env.app(7)
	assert.Equal(t, controller.GateSetup, app.Gate())
	assert.Contains(t, env.tg.texts(), "Completa il tuo profilo")

	// Gate blocks everything else and cannot be cancelled
	env.tg.reset()
	env.press(7, "events_page:0")
	assert.NotContains(t, env.tg.texts(), "Sabato Notte")
	env.say(7, "/cancel")
	assert.Contains(t, env.tg.texts(), "Completa il profilo per usare Clubly")

	env.say(7, "Rossi")
	env.say(7, "-")
	env.say(7, "01/02/1990")
	env.say(7, "Milano")
	env.say(7, "-")

	assert.Equal(t, controller.GateNone, app.Gate())
	assert.Contains(t, env.tg.texts(), "Profilo completato")
	body := env.fake.Bodies("POST /api/user/setup")
	require.Len(t, body, 1)
	assert.Equal(t, "sara", body[0]["username"])
	assert.Equal(t, "1990-02-01", body[0]["data_nascita"])
}

func TestPasswordGateMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddUser(models.User{Nome: "Paolo", Username: "paolo", Email: "paolo@clubly.it", Ruolo: models.RolePromoter, NeedsPasswordChange: true}, "temp123")

	env.login(t, 8, "paolo", "temp123")
	env.say(8, "temp123")
	env.say(8, "nuova-pass")
	env.say(8, "altra-pass")
	assert.Contains(t, env.tg.texts(), "Le password non coincidono")
	assert.Equal(t, 0, env.fake.Count("POST /api/user/change-password"))

	env.press(8, "form:restart")
	env.say(8, "temp123")
	env.say(8, "nuova-pass")
	env.say(8, "nuova-pass")
	assert.Equal(t, controller.GateNone, env.app(8).Gate())
}

func TestDashboardAndExport(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddUser(models.User{Nome: "Anna", Username: "anna", Email: "anna@clubly.it", Ruolo: models.RoleClublyFounder}, "founder")
	env.fake.AddOrganization(models.Organization{Name: "Nautilus", Location: "Milano"})
	env.login(t, 9, "anna", "founder")

	env.say(9, btnDashboard)
	assert.Equal(t, models.ViewClublyFounder, env.app(9).Dashboard().View)
	assert.Contains(t, env.tg.texts(), "Organizzazioni: 1")
	assert.True(t, hasButton(env.tg.lastKeyboard(), "export"))

	env.press(9, "export")
	docs := env.tg.ofKind("document")
	require.Len(t, docs, 1)
	assert.True(t, strings.HasPrefix(docs[0].name, "clubly_export_"))
	assert.True(t, strings.HasSuffix(docs[0].name, ".xlsx"))

	files, err := os.ReadDir(env.cfg.Exports.Path)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestExportForbiddenForClients(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, 1, "giulia", "secret")

	env.say(1, "/export")
	assert.Contains(t, env.tg.texts(), forbiddenText)
	assert.Empty(t, env.tg.ofKind("document"))
}

func TestCreateEventForm(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddUser(models.User{Nome: "Anna", Username: "anna", Email: "anna@clubly.it", Ruolo: models.RoleClublyFounder}, "founder")
	env.login(t, 9, "anna", "founder")

	env.press(9, "admin:create_event")
	assert.Equal(t, controller.OverlayCreateEvent, env.app(9).Overlay().Kind)
	for _, answer := range []string{
		"Venerdì Latino", "14/06/2024", "22:30", "-", "Nautilus Club", "-", "Nautilus",
		"DJ Uno, DJ Due", "-", "8", "-", "-",
	} {
		env.say(9, answer)
	}

	assert.Contains(t, env.tg.texts(), "Evento *Venerdì Latino* creato")
	body := env.fake.Bodies("POST /api/events")
	require.Len(t, body, 1)
	assert.Equal(t, "2024-06-14", body[0]["date"])
	assert.Equal(t, []any{"DJ Uno", "DJ Due"}, body[0]["lineup"])
	assert.EqualValues(t, 8, body[0]["total_tables"])
}

func TestUnknownTextShowsMenu(t *testing.T) {
	env := newTestEnv(t)
	env.say(1, "boh")
	assert.Contains(t, env.tg.texts(), "Non ho capito")
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Bot.RateLimitMessages = 1

	env.say(1, "/help")
	env.say(1, "/help")

	assert.Contains(t, env.tg.texts(), rateLimitText)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, 1, "giulia", "secret")

	env.say(1, btnLogout)
	assert.False(t, env.app(1).Authenticated())
	assert.Contains(t, env.tg.texts(), "Sei uscito da Clubly")
}
