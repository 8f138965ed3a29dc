package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clubly/internal/controller"
	"clubly/internal/models"
	"clubly/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleBookEvent(ctx context.Context, chatID int64, eventID string, app *controller.App) {
	e, err := app.Catalog().Lookup(ctx, eventID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event_id", eventID).Msg("Event lookup failed")
		b.sendMessage(chatID, "⚠️ Evento non trovato.")
		return
	}

	switch app.SelectEvent(e) {
	case controller.BookingAuthRequired:
		if !app.Authenticated() {
			b.render(chatID, 0, fmt.Sprintf("🔐 Per prenotare *%s* devi accedere.", escape(e.Name)), markup(
				row(button("🔐 Accedi", "auth:login"), button("📝 Registrati", "auth:register")),
			))
			return
		}
		b.promptGate(ctx, chatID, app.TelegramID(), app)
	case controller.BookingSubmitting:
		b.sendError(chatID, controller.ErrBookingInProgress)
	default:
		b.showBookingForm(chatID, 0, app)
	}
}

func bookingFormText(flow controller.BookingFlow) string {
	e := flow.Event
	var sb strings.Builder
	sb.WriteString("🎟 *Prenotazione*\n\n")
	sb.WriteString(fmt.Sprintf("🎉 %s\n📅 %s\n📍 %s\n\n", escape(e.Name), eventWhen(*e), escape(e.Location)))

	kind := "da scegliere"
	if flow.Type.Valid() {
		kind = flow.Type.Label()
	}
	sb.WriteString(fmt.Sprintf("Tipo: *%s*\n", kind))
	sb.WriteString(fmt.Sprintf("Persone: *%d* (max %d)\n", flow.PartySize, e.PartyLimit()))
	if e.TablesAvailable <= 0 {
		sb.WriteString("\n🪑 Tavoli esauriti, è disponibile solo la lista.\n")
	}
	if flow.State == controller.BookingFailed && flow.Err != nil {
		sb.WriteString(fmt.Sprintf("\n⚠️ %s\n", escape(flow.Err.Error())))
	}
	return sb.String()
}

func bookingKeyboard(flow controller.BookingFlow) *tgbotapi.InlineKeyboardMarkup {
	typeButton := func(t models.BookingType) tgbotapi.InlineKeyboardButton {
		label := t.Label()
		if flow.Type == t {
			label = "✅ " + label
		}
		return button(label, "btype:"+string(t))
	}

	limit := flow.Event.PartyLimit()
	party := row()
	if flow.PartySize > 1 {
		party = append(party, button("➖", fmt.Sprintf("party:%d", flow.PartySize-1)))
	}
	party = append(party, button(fmt.Sprintf("👥 %d", flow.PartySize), fmt.Sprintf("party:%d", flow.PartySize)))
	if flow.PartySize < limit {
		party = append(party, button("➕", fmt.Sprintf("party:%d", flow.PartySize+1)))
	}

	submit := "✅ Conferma"
	if flow.State == controller.BookingFailed {
		submit = "🔁 Riprova"
	}
	return markup(
		row(typeButton(models.BookingLista), typeButton(models.BookingTavolo)),
		party,
		row(button(submit, "book_submit"), button("❌ Annulla", "cancel")),
	)
}

// showBookingForm renders the open booking form, editing messageID when set.
func (b *Bot) showBookingForm(chatID int64, messageID int, app *controller.App) {
	flow := app.Booking()
	if flow.Event == nil {
		b.sendError(chatID, controller.ErrNoEventSelected)
		return
	}
	b.render(chatID, messageID, bookingFormText(flow), bookingKeyboard(flow))
}

func (b *Bot) handleBookingType(chatID int64, messageID int, arg string, app *controller.App) {
	if err := app.SetBookingType(models.BookingType(arg)); err != nil {
		b.sendError(chatID, err)
		return
	}
	b.showBookingForm(chatID, messageID, app)
}

func (b *Bot) handlePartySize(chatID int64, messageID int, arg string, app *controller.App) {
	n := atoi(arg)
	if n == app.Booking().PartySize {
		return
	}
	if err := app.SetPartySize(n); err != nil {
		if !errors.Is(err, controller.ErrInvalidPartySize) {
			b.sendError(chatID, err)
		}
		return
	}
	b.showBookingForm(chatID, messageID, app)
}

func (b *Bot) handleBookingSubmit(ctx context.Context, chatID int64, messageID int, app *controller.App) {
	flow := app.Booking()
	if flow.Event != nil && flow.State != controller.BookingSubmitting {
		b.render(chatID, messageID, bookingFormText(flow)+"\n⏳ Invio della prenotazione...", nil)
	}

	flow, err := app.Submit(ctx)
	if err != nil {
		switch {
		case errors.Is(err, controller.ErrNotAuthenticated):
			b.sendError(chatID, err)
			b.sendMainMenu(ctx, chatID, app)
		case flow.State == controller.BookingFailed, flow.State == controller.BookingFormOpen:
			if flow.State == controller.BookingFormOpen {
				b.sendError(chatID, err)
			}
			b.showBookingForm(chatID, messageID, app)
		default:
			b.sendError(chatID, err)
		}
		return
	}

	b.sendBookingConfirmation(ctx, chatID, flow)
	if flow.Chat != nil {
		b.renderChat(chatID, 0, app)
		return
	}
	b.sendMessage(chatID, "💬 La chat con il promoter sarà disponibile a breve in /chats.")
}

func (b *Bot) sendBookingConfirmation(ctx context.Context, chatID int64, flow controller.BookingFlow) {
	res := flow.Result
	var sb strings.Builder
	sb.WriteString("✅ *Prenotazione confermata!*\n\n")
	sb.WriteString(fmt.Sprintf("🎉 %s\n📅 %s\n", escape(flow.Event.Name), eventWhen(*flow.Event)))
	sb.WriteString(fmt.Sprintf("🎟 %s per %d\n", flow.Type.Label(), flow.PartySize))
	if res.PromoterName != "" {
		sb.WriteString(fmt.Sprintf("🤝 Promoter: %s\n", escape(res.PromoterName)))
	}
	if res.Message != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", escape(res.Message)))
	}
	b.render(chatID, 0, sb.String(), markup(row(button("📆 Calendario", "ics:"+flow.Event.ID))))

	png, err := b.pass.QR(service.PassContent(*res, *flow.Event, flow.Type, flow.PartySize))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("booking_id", res.BookingID).Msg("Failed to build entry pass")
		return
	}
	caption := "🎫 Il tuo pass d'ingresso: mostralo all'ingresso."
	if _, err := b.tgService.SendPhoto(chatID, "clubly_pass.png", png, caption); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to send entry pass")
	}
}

func bookingStatus(status string) string {
	switch strings.ToLower(status) {
	case "confirmed", "confermata":
		return "✅"
	case "cancelled", "annullata":
		return "❌"
	}
	return "⏳"
}

func (b *Bot) showUserBookings(ctx context.Context, chatID int64, messageID, page int, app *controller.App) {
	if !b.requireSession(chatID, app) {
		return
	}
	bookings, err := app.UserBookings(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(bookings) == 0 {
		b.render(chatID, messageID, "🎟 Non hai ancora prenotazioni.", markup(row(button("🎉 Eventi", "events_page:0"))))
		return
	}

	params := PaginationParams{
		ChatID:     chatID,
		MessageID:  messageID,
		Page:       page,
		Title:      "🎟 *Le tue prenotazioni*",
		PagePrefix: "bookings_page:",
	}
	b.renderPaginatedList(params, len(bookings), 0, func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton

		for _, bk := range bookings[startIdx:endIdx] {
			name := bk.EventID
			if bk.Event != nil {
				name = bk.Event.Name
			} else if e, ok := app.Catalog().Event(bk.EventID); ok {
				name = e.Name
			}
			content.WriteString(fmt.Sprintf("%s *%s*\n", bookingStatus(bk.Status), escape(name)))
			if bk.Event != nil {
				content.WriteString(fmt.Sprintf("   📅 %s\n", eventWhen(*bk.Event)))
			}
			content.WriteString(fmt.Sprintf("   🎟 %s · 👥 %d\n\n", bk.BookingType.Label(), bk.PartySize))

			keyboard = append(keyboard, row(button(truncate(name, 30), "event:"+bk.EventID)))
		}
		return content.String(), keyboard
	})
}
