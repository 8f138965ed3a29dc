package bot

import (
	"context"
	"strings"

	"clubly/internal/controller"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, cb *tgbotapi.CallbackQuery, app *controller.App) {
	l := zerolog.Ctx(ctx)

	// answer right away so the client stops the spinner
	if err := b.tgService.AnswerCallback(cb.ID, ""); err != nil {
		l.Debug().Err(err).Msg("Failed to answer callback")
	}
	if cb.Message == nil {
		return
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID
	action, arg, _ := strings.Cut(cb.Data, ":")

	l.Debug().Str("data", cb.Data).Msg("Handling callback query")

	if app.Gate() != controller.GateNone && action != "logout" && action != "form" {
		b.promptGate(ctx, chatID, userID, app)
		return
	}

	switch action {
	case "menu":
		b.sendMainMenu(ctx, chatID, app)
	case "cancel":
		b.cancelForm(ctx, chatID, userID, app)
	case "form":
		b.handleFormCallback(ctx, cb, app, arg)

	case "auth":
		b.startAuth(ctx, chatID, userID, app, controller.AuthMode(arg))
	case "logout":
		b.handleLogout(ctx, chatID, userID, app)
	case "profile_edit":
		b.startProfileEdit(ctx, chatID, userID, app)
	case "notifications":
		b.showNotifications(ctx, chatID, app)

	case "events_page":
		b.showEvents(ctx, chatID, messageID, atoi(arg), app)
	case "event":
		b.showEventDetails(ctx, chatID, arg, app)
	case "ics":
		b.sendEventCalendar(ctx, chatID, arg, app)

	case "book":
		b.handleBookEvent(ctx, chatID, arg, app)
	case "btype":
		b.handleBookingType(chatID, messageID, arg, app)
	case "party":
		b.handlePartySize(chatID, messageID, arg, app)
	case "book_submit":
		b.handleBookingSubmit(ctx, chatID, messageID, app)
	case "bookings_page":
		b.showUserBookings(ctx, chatID, messageID, atoi(arg), app)

	case "chats":
		b.showChats(ctx, chatID, messageID, 0, app)
	case "chats_page":
		b.showChats(ctx, chatID, messageID, atoi(arg), app)
	case "chat":
		b.openChat(ctx, chatID, messageID, arg, app)
	case "chat_refresh":
		b.refreshChat(ctx, chatID, messageID, app)
	case "chat_retry":
		b.retryChatMessage(ctx, chatID, app)

	case "dash":
		b.handleDashboardView(ctx, chatID, messageID, arg, app)
	case "export":
		b.handleExport(ctx, chatID, app)
	case "admin":
		b.handleAdminCallback(ctx, chatID, messageID, userID, arg, app)

	default:
		l.Warn().Str("data", cb.Data).Msg("Unknown callback")
	}
}
