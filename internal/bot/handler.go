package bot

import (
	"context"
	"strings"

	"clubly/internal/controller"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message, app *controller.App) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)
	command := msg.Command()
	l := zerolog.Ctx(ctx)

	l.Debug().
		Str("username", msg.From.UserName).
		Str("command", command).
		Str("overlay", app.Overlay().Kind.String()).
		Msg("Handling message")

	// these commands work everywhere, even inside a form
	switch {
	case command == "start":
		b.handleStart(ctx, msg, app)
		return
	case command == "cancel" || text == btnCancel:
		b.cancelForm(ctx, chatID, userID, app)
		return
	case command == "logout" || text == btnLogout:
		b.handleLogout(ctx, chatID, userID, app)
		return
	}

	state, err := b.stateService.GetUserState(ctx, userID)
	if err != nil {
		l.Error().Err(err).Msg("Failed to load form state")
	}
	if state != nil && b.handleFormInput(ctx, msg, app, state) {
		return
	}

	if b.promptGate(ctx, chatID, userID, app) {
		return
	}

	if b.handleMenuCommand(ctx, msg, app, command, text) {
		return
	}

	if app.Overlay().Kind == controller.OverlayChat && app.Chats().SelectedID != "" {
		b.sendChatMessage(ctx, chatID, app, msg.Text)
		return
	}

	b.sendMainMenuWithText(ctx, chatID, app, "🤔 Non ho capito. Usa il menu qui sotto oppure /help.")
}

func (b *Bot) handleMenuCommand(ctx context.Context, msg *tgbotapi.Message, app *controller.App, command, text string) bool {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch {
	case command == "help":
		b.handleHelp(chatID)
	case command == "events" || text == btnEvents:
		b.showEvents(ctx, chatID, 0, 0, app)
	case command == "bookings" || text == btnBookings:
		b.showUserBookings(ctx, chatID, 0, 0, app)
	case command == "chats" || text == btnChats:
		b.showChats(ctx, chatID, 0, 0, app)
	case command == "notifications":
		b.showNotifications(ctx, chatID, app)
	case command == "dashboard" || text == btnDashboard:
		b.showDashboard(ctx, chatID, 0, app)
	case command == "profile" || text == btnProfile:
		b.showProfile(ctx, chatID, app)
	case command == "login" || text == btnLogin:
		b.startAuth(ctx, chatID, userID, app, controller.AuthLogin)
	case command == "register" || text == btnRegister:
		b.startAuth(ctx, chatID, userID, app, controller.AuthRegister)
	case command == "export":
		b.handleExport(ctx, chatID, app)
	default:
		return false
	}
	return true
}
