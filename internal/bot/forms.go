package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"clubly/internal/controller"
	"clubly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// skipInput keeps the current value of a field or skips an optional one.
const skipInput = "-"

type formField struct {
	key      string
	step     string
	prompt   string
	optional bool
	secret   bool
	parse    func(string) (string, error)
}

// formValues are the collected answers, keyed by field.
type formValues map[string]string

func (v formValues) list(key string) []string { return models.SplitList(v[key]) }

func (v formValues) int(key string) int { return atoi(v[key]) }

type formReply struct {
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

// formSpec describes a multi-step form. Progress lives in the state
// repository under the form name, so a form survives a bot restart.
type formSpec struct {
	name   string
	title  string
	fields []formField
	// gate forms complete the profile and cannot be cancelled
	gate bool
	// anonymous forms run without a session
	anonymous bool
	// refreshMenu resends the main keyboard after a successful submit
	refreshMenu bool
	submit      func(ctx context.Context, app *controller.App, v formValues) (formReply, error)
}

func (b *Bot) startForm(ctx context.Context, chatID, userID int64, name string, prefill map[string]string) {
	spec, ok := b.forms[name]
	if !ok {
		b.logger.Error().Str("form", name).Msg("Unknown form")
		return
	}

	b.secrets.drop(userID)
	state, err := b.stateService.StartForm(ctx, userID, name, spec.fields[0].step)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(prefill) > 0 {
		for k, v := range prefill {
			state.Set(k, v)
		}
		if err := b.stateService.SaveUserState(ctx, state); err != nil {
			b.sendError(chatID, err)
			return
		}
	}

	text := spec.title
	if !spec.gate {
		text += "\n\nInvia /cancel per annullare."
	}
	b.sendMarkdown(chatID, text)
	b.promptField(chatID, spec, state)
}

func (b *Bot) promptField(chatID int64, spec *formSpec, state *models.FormState) {
	field := spec.fields[state.FieldIndex]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("(%d/%d) %s", state.FieldIndex+1, len(spec.fields), field.prompt))
	if current := state.GetString(field.key); current != "" && !field.secret {
		sb.WriteString(fmt.Sprintf("\nValore attuale: %s\nInvia %s per mantenerlo.", current, skipInput))
	} else if field.optional {
		sb.WriteString(fmt.Sprintf("\n(facoltativo, invia %s per saltare)", skipInput))
	}
	b.sendMessage(chatID, sb.String())
}

// handleFormInput feeds msg to the form in progress. It returns false when
// the stored state belongs to no known form.
func (b *Bot) handleFormInput(ctx context.Context, msg *tgbotapi.Message, app *controller.App, state *models.FormState) bool {
	chatID := msg.Chat.ID
	spec, ok := b.forms[state.Form]
	if !ok || (state.CurrentStep != models.StepFormSubmit && (state.FieldIndex < 0 || state.FieldIndex >= len(spec.fields))) {
		_ = b.clearForm(ctx, state.UserID)
		return false
	}

	if state.CurrentStep == models.StepFormSubmit {
		b.sendFormRetry(chatID, spec)
		return true
	}

	field := spec.fields[state.FieldIndex]
	input := msg.Text
	if field.secret {
		// keep passwords out of the chat history
		if _, err := b.tgService.Request(tgbotapi.NewDeleteMessage(chatID, msg.MessageID)); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Msg("Failed to delete secret input")
		}
	} else {
		input = strings.TrimSpace(input)
	}

	keep := input == skipInput && (field.optional || state.GetString(field.key) != "")
	if !keep {
		parse := field.parse
		if parse == nil {
			parse = parseText
		}
		value, err := parse(input)
		if input == skipInput {
			err = errRequired
		}
		if err != nil {
			b.sendMessage(chatID, "⚠️ "+capitalize(err.Error()))
			b.promptField(chatID, spec, state)
			return true
		}
		if field.secret {
			b.secrets.put(state.UserID, field.key, value)
		} else {
			state.Set(field.key, value)
		}
	}

	state.FieldIndex++
	if state.FieldIndex < len(spec.fields) {
		state.CurrentStep = spec.fields[state.FieldIndex].step
		if err := b.stateService.SaveUserState(ctx, state); err != nil {
			b.sendError(chatID, err)
			return true
		}
		b.promptField(chatID, spec, state)
		return true
	}

	state.CurrentStep = models.StepFormSubmit
	if err := b.stateService.SaveUserState(ctx, state); err != nil {
		b.sendError(chatID, err)
		return true
	}
	b.submitForm(ctx, chatID, app, spec, state)
	return true
}

// submitForm sends the collected values. A failed submit keeps the stored
// answers so the user can retry or correct them; secret answers are
// consumed by every attempt and asked again on retry.
func (b *Bot) submitForm(ctx context.Context, chatID int64, app *controller.App, spec *formSpec, state *models.FormState) {
	if idx := b.missingSecret(spec, state.UserID); idx >= 0 {
		b.resumeForm(ctx, chatID, spec, state, idx)
		return
	}

	values := make(formValues, len(state.TempData))
	for k, v := range state.TempData {
		values[k] = v
	}
	for k, v := range b.secrets.take(state.UserID) {
		values[k] = v
	}

	reply, err := spec.submit(ctx, app, values)
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("form", spec.name).Msg("Form submission failed")
		b.sendError(chatID, err)
		if !spec.anonymous && !app.Authenticated() {
			_ = b.clearForm(ctx, state.UserID)
			b.sendMainMenu(ctx, chatID, app)
			return
		}
		b.sendFormRetry(chatID, spec)
		return
	}

	if err := b.clearForm(ctx, state.UserID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to clear form state")
	}
	if reply.text != "" {
		b.render(chatID, 0, reply.text, reply.keyboard)
	}
	b.afterForm(ctx, chatID, app, spec.refreshMenu)
}

// missingSecret returns the index of the first secret field without an
// answer in memory, or -1.
func (b *Bot) missingSecret(spec *formSpec, userID int64) int {
	for i, f := range spec.fields {
		if f.secret && !b.secrets.has(userID, f.key) {
			return i
		}
	}
	return -1
}

// resumeForm moves the form back to field idx and prompts it again.
func (b *Bot) resumeForm(ctx context.Context, chatID int64, spec *formSpec, state *models.FormState, idx int) {
	state.FieldIndex = idx
	state.CurrentStep = spec.fields[idx].step
	if err := b.stateService.SaveUserState(ctx, state); err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendMessage(chatID, "🔑 Per sicurezza inserisci di nuovo la password.")
	b.promptField(chatID, spec, state)
}

func (b *Bot) sendFormRetry(chatID int64, spec *formSpec) {
	rows := [][]tgbotapi.InlineKeyboardButton{
		row(button("🔁 Riprova", "form:retry"), button("✏️ Correggi", "form:restart")),
	}
	if !spec.gate {
		rows = append(rows, row(button("❌ Annulla", "cancel")))
	}
	b.render(chatID, 0, "Vuoi inviare di nuovo il modulo o correggere i dati?", markup(rows...))
}

func (b *Bot) handleFormCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, app *controller.App, action string) {
	chatID := cb.Message.Chat.ID
	state, err := b.stateService.GetUserState(ctx, cb.From.ID)
	if err != nil || state == nil || state.CurrentStep != models.StepFormSubmit {
		b.sendMessage(chatID, "Nessun modulo in attesa di invio.")
		return
	}
	spec, ok := b.forms[state.Form]
	if !ok {
		_ = b.clearForm(ctx, cb.From.ID)
		return
	}

	switch action {
	case "retry":
		b.submitForm(ctx, chatID, app, spec, state)
	case "restart":
		prefill := make(map[string]string, len(state.TempData))
		for k, v := range state.TempData {
			prefill[k] = v
		}
		for _, f := range spec.fields {
			if f.secret {
				delete(prefill, f.key)
			}
		}
		b.startForm(ctx, chatID, cb.From.ID, spec.name, prefill)
	}
}

// cancelForm drops the form in progress and the overlay it belongs to.
// Profile gates cannot be cancelled.
func (b *Bot) cancelForm(ctx context.Context, chatID, userID int64, app *controller.App) {
	state, err := b.stateService.GetUserState(ctx, userID)
	if err == nil && state != nil {
		if spec, ok := b.forms[state.Form]; ok && spec.gate {
			b.sendMessage(chatID, "⚠️ Completa il profilo per usare Clubly. Puoi uscire con /logout.")
			return
		}
	}
	if err := b.clearForm(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to clear form state")
	}
	if app.Gate() != controller.GateNone {
		b.promptGate(ctx, chatID, userID, app)
		return
	}
	app.CloseOverlay()
	b.sendMainMenuWithText(ctx, chatID, app, "Operazione annullata.")
}

// afterForm continues where the session left off: a profile gate first,
// then a booking form left pending by the login requirement.
func (b *Bot) afterForm(ctx context.Context, chatID int64, app *controller.App, refreshMenu bool) {
	if refreshMenu {
		b.sendMainMenu(ctx, chatID, app)
	}
	if b.promptGate(ctx, chatID, app.TelegramID(), app) {
		return
	}
	if app.Overlay().Kind == controller.OverlayBooking && app.Booking().State == controller.BookingFormOpen {
		b.showBookingForm(chatID, 0, app)
	}
}

// clearForm drops the stored form of userID together with its secrets.
func (b *Bot) clearForm(ctx context.Context, userID int64) error {
	b.secrets.drop(userID)
	return b.stateService.ClearUserState(ctx, userID)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
