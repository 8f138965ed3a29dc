package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clubly/internal/controller"
	"clubly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) showChats(ctx context.Context, chatID int64, messageID, page int, app *controller.App) {
	if !b.requireSession(chatID, app) {
		return
	}
	if err := app.LoadChats(ctx); err != nil {
		b.sendError(chatID, err)
		return
	}
	if _, err := app.RefreshUnread(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to refresh unread counter")
	}
	if !b.openOverlay(ctx, chatID, app, controller.ChatOverlay()) {
		return
	}

	view := app.Chats()
	title := "💬 *Le tue chat*"
	if view.Unread > 0 {
		title += fmt.Sprintf("  🔔 %d", view.Unread)
	}
	if len(view.Chats) == 0 {
		b.render(chatID, messageID, title+"\n\nNessuna chat. Prenota un evento per parlare con un promoter.",
			markup(row(button("🎉 Eventi", "events_page:0"))))
		return
	}

	params := PaginationParams{
		ChatID:     chatID,
		MessageID:  messageID,
		Page:       page,
		Title:      title,
		PagePrefix: "chats_page:",
	}
	b.renderPaginatedList(params, len(view.Chats), 0, func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton

		for i, c := range view.Chats[startIdx:endIdx] {
			n := startIdx + i + 1
			content.WriteString(fmt.Sprintf("%d. *%s*\n", n, escape(c.Title())))
			if c.LastMessage != nil {
				content.WriteString(fmt.Sprintf("   _%s_\n", escape(truncate(c.LastMessage.Message, models.MessagePreviewLength))))
			}
			content.WriteString("\n")
			keyboard = append(keyboard, row(button(fmt.Sprintf("%d. %s", n, truncate(c.Title(), 30)), "chat:"+c.ID)))
		}
		return content.String(), keyboard
	})
}

func (b *Bot) openChat(ctx context.Context, chatID int64, messageID int, id string, app *controller.App) {
	if !b.requireSession(chatID, app) {
		return
	}
	if err := app.SelectChat(ctx, id); err != nil {
		b.sendError(chatID, err)
		if !app.Authenticated() {
			return
		}
	}
	b.renderChat(chatID, messageID, app)
}

func (b *Bot) messageTime(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ""
	}
	return t.In(b.config.Location()).Format("02/01 15:04")
}

func (b *Bot) chatText(view controller.ChatView, me *models.User) string {
	chat, _ := view.Selected()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💬 *%s*\n\n", escape(chat.Title())))

	switch {
	case view.Loading:
		sb.WriteString("⏳ Caricamento dei messaggi...\n")
	case len(view.Messages) == 0:
		sb.WriteString("Nessun messaggio. Scrivi per iniziare la conversazione.\n")
	default:
		msgs := view.Messages
		if len(msgs) > models.HistoryLimit {
			msgs = msgs[len(msgs)-models.HistoryLimit:]
		}
		for _, m := range msgs {
			sender := m.SenderRole.Label()
			if me != nil && m.SenderID == me.ID {
				sender = "Tu"
			} else if p := chat.OtherParticipant; p != nil && p.ID == m.SenderID {
				sender = p.Label()
			}
			line := fmt.Sprintf("*%s*: %s", escape(sender), escape(m.Message))
			if when := b.messageTime(m.Timestamp); when != "" {
				line = fmt.Sprintf("`%s` %s", when, line)
			}
			sb.WriteString(line + "\n")
		}
	}

	if view.Draft != "" && !view.Sending {
		sb.WriteString(fmt.Sprintf("\n📝 Non inviato: _%s_\n", escape(truncate(view.Draft, 200))))
	}
	sb.WriteString("\n✍️ Scrivi un messaggio per rispondere.")
	return sb.String()
}

// renderChat shows the selected conversation; new text messages go to it
// while the chat overlay is open.
func (b *Bot) renderChat(chatID int64, messageID int, app *controller.App) {
	view := app.Chats()
	if view.SelectedID == "" {
		b.sendError(chatID, controller.ErrNoChatSelected)
		return
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		row(button("🔄 Aggiorna", "chat_refresh"), button("⬅️ Tutte le chat", "chats")),
	}
	if view.Draft != "" && !view.Sending {
		rows = append([][]tgbotapi.InlineKeyboardButton{row(button("🔁 Reinvia", "chat_retry"))}, rows...)
	}
	b.render(chatID, messageID, b.chatText(view, app.User()), markup(rows...))
}

func (b *Bot) sendChatMessage(ctx context.Context, chatID int64, app *controller.App, text string) {
	err := app.SendMessage(ctx, text)
	if err != nil {
		b.sendError(chatID, err)
		if errors.Is(err, controller.ErrNotAuthenticated) || errors.Is(err, controller.ErrNoChatSelected) {
			return
		}
	}
	b.renderChat(chatID, 0, app)
}

func (b *Bot) refreshChat(ctx context.Context, chatID int64, messageID int, app *controller.App) {
	if err := app.ReloadMessages(ctx); err != nil {
		b.sendError(chatID, err)
		if !errors.Is(err, controller.ErrNotAuthenticated) && !errors.Is(err, controller.ErrNoChatSelected) {
			b.renderChat(chatID, messageID, app)
		}
		return
	}
	b.renderChat(chatID, messageID, app)
}

func (b *Bot) retryChatMessage(ctx context.Context, chatID int64, app *controller.App) {
	draft := app.Draft()
	if strings.TrimSpace(draft) == "" {
		b.sendMessage(chatID, "Nessun messaggio da reinviare.")
		return
	}
	b.sendChatMessage(ctx, chatID, app, draft)
}
