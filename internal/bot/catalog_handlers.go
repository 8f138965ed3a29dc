package bot

import (
	"context"
	"fmt"
	"strings"

	"clubly/internal/controller"
	"clubly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) showEvents(ctx context.Context, chatID int64, messageID, page int, app *controller.App) {
	catalog := app.Catalog()
	events := catalog.Events()
	if len(events) == 0 {
		if err := catalog.Refresh(ctx); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to refresh catalog")
		}
		events = catalog.Events()
	}
	if len(events) == 0 {
		b.render(chatID, messageID, "🎉 Nessun evento in programma al momento.", nil)
		return
	}

	params := PaginationParams{
		ChatID:     chatID,
		MessageID:  messageID,
		Page:       page,
		Title:      "🎉 *Eventi in programma*",
		PagePrefix: "events_page:",
	}
	b.renderPaginatedList(params, len(events), 0, func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton

		for i, e := range events[startIdx:endIdx] {
			n := startIdx + i + 1
			content.WriteString(fmt.Sprintf("%d. *%s*\n", n, escape(e.Name)))
			content.WriteString(fmt.Sprintf("   📅 %s\n", eventWhen(e)))
			content.WriteString(fmt.Sprintf("   📍 %s\n", escape(e.Location)))
			content.WriteString(fmt.Sprintf("   🪑 Tavoli disponibili: %d/%d\n\n", e.TablesAvailable, e.TotalTables))

			keyboard = append(keyboard, row(button(fmt.Sprintf("%d. %s", n, truncate(e.Name, 30)), "event:"+e.ID)))
		}
		return content.String(), keyboard
	})
}

func eventDetailsText(e models.Event) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎉 *%s*\n\n", escape(e.Name)))
	sb.WriteString(fmt.Sprintf("📅 %s\n", eventWhen(e)))
	sb.WriteString(fmt.Sprintf("📍 %s", escape(e.Location)))
	if e.LocationAddress != "" {
		sb.WriteString(fmt.Sprintf(", %s", escape(e.LocationAddress)))
	}
	sb.WriteString("\n")
	if e.Organization != "" {
		sb.WriteString(fmt.Sprintf("🏢 %s\n", escape(e.Organization)))
	}
	if len(e.Lineup) > 0 {
		sb.WriteString(fmt.Sprintf("🎧 Lineup: %s\n", escape(strings.Join(e.Lineup, ", "))))
	}
	if len(e.Guests) > 0 {
		sb.WriteString(fmt.Sprintf("⭐ Ospiti: %s\n", escape(strings.Join(e.Guests, ", "))))
	}
	sb.WriteString(fmt.Sprintf("🪑 Tavoli disponibili: %d/%d\n", e.TablesAvailable, e.TotalTables))
	sb.WriteString(fmt.Sprintf("👥 Max %d persone per prenotazione\n", e.PartyLimit()))
	return sb.String()
}

// eventKeyboard adds the staff actions the role of u allows.
func eventKeyboard(e models.Event, u *models.User) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		row(button("🎟 Prenota", "book:"+e.ID), button("📆 Calendario", "ics:"+e.ID)),
	}
	if u != nil {
		switch u.Ruolo {
		case models.RoleClublyFounder:
			rows = append(rows,
				row(button("✏️ Modifica", "admin:edit_event:"+e.ID), button("🖼 Poster", "admin:poster:"+e.ID)),
				row(button("🗑 Elimina", "admin:delete_event:"+e.ID)),
			)
		case models.RoleCapoPromoter:
			rows = append(rows, row(button("✏️ Modifica", "admin:edit_limited:"+e.ID), button("🖼 Poster", "admin:poster:"+e.ID)))
		}
	}
	rows = append(rows, row(button("⬅️ Eventi", "events_page:0")))
	return markup(rows...)
}

func (b *Bot) showEventDetails(ctx context.Context, chatID int64, eventID string, app *controller.App) {
	e, err := app.OpenEvent(ctx, eventID)
	if err != nil {
		b.sendError(chatID, err)
		b.promptGate(ctx, chatID, app.TelegramID(), app)
		return
	}

	if poster := e.Poster(); poster != "" {
		if _, err := b.tgService.SendPhotoURL(chatID, poster, fmt.Sprintf("*%s*", escape(e.Name)), nil); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("event_id", e.ID).Msg("Failed to send event poster")
		}
	}
	b.render(chatID, 0, eventDetailsText(e), eventKeyboard(e, app.User()))
}

// sendEventCalendar sends the event as an .ics attachment.
func (b *Bot) sendEventCalendar(ctx context.Context, chatID int64, eventID string, app *controller.App) {
	e, err := app.Catalog().Lookup(ctx, eventID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event_id", eventID).Msg("Event lookup failed")
		b.sendMessage(chatID, "⚠️ Evento non trovato.")
		return
	}
	data, err := b.calendar.EventICS(e)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("event_id", eventID).Msg("Failed to build calendar file")
		b.sendError(chatID, err)
		return
	}
	name := fmt.Sprintf("clubly_%s.ics", e.ID)
	if _, err := b.tgService.SendDocument(chatID, name, data, "📆 Aggiungi l'evento al tuo calendario"); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to send calendar file")
	}
}
