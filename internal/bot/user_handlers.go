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

// Main menu buttons
const (
	btnEvents    = "🎉 Eventi"
	btnChats     = "💬 Chat"
	btnBookings  = "🎟 Prenotazioni"
	btnDashboard = "📊 Dashboard"
	btnProfile   = "👤 Profilo"
	btnLogin     = "🔐 Accedi"
	btnRegister  = "📝 Registrati"
	btnLogout    = "🚪 Esci"
	btnCancel    = "❌ Annulla"
)

const helpText = `*Clubly* ti permette di prenotare liste e tavoli nei migliori eventi.

/events - eventi in programma
/bookings - le tue prenotazioni
/chats - chat con i promoter
/notifications - notifiche non lette
/dashboard - dashboard staff
/profile - il tuo profilo
/login, /register, /logout
/cancel - annulla l'operazione in corso`

func (b *Bot) mainMenuKeyboard(app *controller.App) tgbotapi.ReplyKeyboardMarkup {
	if !app.Authenticated() {
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnEvents)),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(btnLogin),
				tgbotapi.NewKeyboardButton(btnRegister),
			),
		)
	}

	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnEvents),
			tgbotapi.NewKeyboardButton(btnBookings),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnChats),
			tgbotapi.NewKeyboardButton(btnProfile),
		),
	}
	if u := app.User(); u != nil && len(u.DashboardViews()) > 0 {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnDashboard)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnLogout)))
	return tgbotapi.NewReplyKeyboard(rows...)
}

func (b *Bot) sendMainMenu(ctx context.Context, chatID int64, app *controller.App) {
	text := "Cosa vuoi fare?"
	if u := app.User(); u != nil {
		text = fmt.Sprintf("Ciao %s! Cosa vuoi fare?", u.Nome)
	}
	b.sendMainMenuWithText(ctx, chatID, app, text)
}

func (b *Bot) sendMainMenuWithText(ctx context.Context, chatID int64, app *controller.App, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = b.mainMenuKeyboard(app)
	if _, err := b.tgService.Send(msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to send main menu")
	}
}

// handleStart resets everything but a pending profile gate.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, app *controller.App) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if state, err := b.stateService.GetUserState(ctx, userID); err == nil && state != nil {
		if spec, ok := b.forms[state.Form]; !ok || !spec.gate {
			_ = b.clearForm(ctx, userID)
		}
	}
	app.CloseOverlay()

	greeting := "👋 Benvenuto su *Clubly*!\nScopri gli eventi e prenota la tua serata."
	if u := app.User(); u != nil {
		greeting = fmt.Sprintf("👋 Bentornato su *Clubly*, %s!", escape(u.Nome))
	}
	b.sendMarkdown(chatID, greeting)
	b.sendMainMenu(ctx, chatID, app)
	b.promptGate(ctx, chatID, userID, app)
}

func (b *Bot) handleHelp(chatID int64) {
	b.sendMarkdown(chatID, helpText)
}

func gateForm(g controller.Gate) string {
	switch g {
	case controller.GateSetup:
		return formSetup
	case controller.GatePasswordChange:
		return formPassword
	}
	return ""
}

// promptGate shows the pending profile gate, resuming the form when one is
// already in progress. It reports whether a gate is active.
func (b *Bot) promptGate(ctx context.Context, chatID, userID int64, app *controller.App) bool {
	name := gateForm(app.Gate())
	if name == "" {
		return false
	}
	spec := b.forms[name]

	state, err := b.stateService.GetUserState(ctx, userID)
	if err == nil && state != nil && state.Form == name {
		if state.CurrentStep == models.StepFormSubmit {
			b.sendFormRetry(chatID, spec)
		} else {
			b.promptField(chatID, spec, state)
		}
		return true
	}

	var prefill map[string]string
	if u := app.User(); u != nil && name == formSetup {
		prefill = map[string]string{}
		for k, v := range map[string]string{
			"cognome":       u.Cognome,
			"username":      u.Username,
			"data_nascita":  u.DataNascita,
			"citta":         u.Citta,
			"profile_image": u.ProfileImage,
		} {
			if v != "" {
				prefill[k] = v
			}
		}
	}
	b.startForm(ctx, chatID, userID, name, prefill)
	return true
}

// openOverlay shows o, falling back to the profile gate when one blocks it.
func (b *Bot) openOverlay(ctx context.Context, chatID int64, app *controller.App, o controller.Overlay) bool {
	if err := app.OpenOverlay(o); err != nil {
		b.sendError(chatID, err)
		b.promptGate(ctx, chatID, app.TelegramID(), app)
		return false
	}
	return true
}

// requireSession asks anonymous users to log in.
func (b *Bot) requireSession(chatID int64, app *controller.App) bool {
	if app.Authenticated() {
		return true
	}
	b.render(chatID, 0, "🔐 Devi accedere per continuare.", markup(
		row(button("🔐 Accedi", "auth:login"), button("📝 Registrati", "auth:register")),
	))
	return false
}

func (b *Bot) startAuth(ctx context.Context, chatID, userID int64, app *controller.App, mode controller.AuthMode) {
	if app.Authenticated() {
		b.sendMainMenuWithText(ctx, chatID, app, "Hai già effettuato l'accesso.")
		return
	}
	o := controller.AuthOverlay(mode)
	if !b.openOverlay(ctx, chatID, app, o) {
		return
	}
	if o.AuthMode == controller.AuthRegister {
		b.startForm(ctx, chatID, userID, formRegister, nil)
		return
	}
	b.startForm(ctx, chatID, userID, formLogin, nil)
}

func (b *Bot) handleLogout(ctx context.Context, chatID, userID int64, app *controller.App) {
	if err := b.clearForm(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to clear form state")
	}
	if !app.Authenticated() {
		b.sendMainMenuWithText(ctx, chatID, app, "Non hai effettuato l'accesso.")
		return
	}
	if err := app.Logout(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Logout failed")
	}
	b.sendMainMenuWithText(ctx, chatID, app, "👋 Sei uscito da Clubly. A presto!")
}

func profileText(u *models.User) string {
	if u == nil {
		return "Profilo non disponibile."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 *%s*\n", escape(u.FullName())))
	if u.Username != "" {
		sb.WriteString(fmt.Sprintf("🏷 %s\n", escape(u.DisplayName())))
	}
	sb.WriteString(fmt.Sprintf("🎭 %s\n", u.Ruolo.Label()))
	if u.Email != "" {
		sb.WriteString(fmt.Sprintf("📧 %s\n", escape(u.Email)))
	}
	if u.Citta != "" {
		sb.WriteString(fmt.Sprintf("🏙 %s\n", escape(u.Citta)))
	}
	if u.DataNascita != "" {
		sb.WriteString(fmt.Sprintf("🎂 %s\n", formatDate(u.DataNascita)))
	}
	if u.Organization != "" {
		sb.WriteString(fmt.Sprintf("🏢 %s\n", escape(u.Organization)))
	}
	if u.Biografia != "" {
		sb.WriteString(fmt.Sprintf("\n_%s_\n", escape(u.Biografia)))
	}
	return sb.String()
}

func (b *Bot) showProfile(ctx context.Context, chatID int64, app *controller.App) {
	if !b.requireSession(chatID, app) {
		return
	}
	if err := app.ReloadProfile(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to reload profile")
		if !app.Authenticated() {
			b.sendError(chatID, err)
			b.sendMainMenu(ctx, chatID, app)
			return
		}
	}
	if b.promptGate(ctx, chatID, app.TelegramID(), app) {
		return
	}
	b.render(chatID, 0, profileText(app.User()), markup(
		row(button("✏️ Modifica profilo", "profile_edit"), button("🎟 Prenotazioni", "bookings_page:0")),
		row(button("🚪 Esci", "logout")),
	))
}

func (b *Bot) startProfileEdit(ctx context.Context, chatID, userID int64, app *controller.App) {
	if !b.requireSession(chatID, app) {
		return
	}
	if !b.openOverlay(ctx, chatID, app, controller.ProfileEditOverlay()) {
		return
	}
	u := app.User()
	b.startForm(ctx, chatID, userID, formProfile, map[string]string{
		"nome":      u.Nome,
		"username":  u.Username,
		"biografia": u.Biografia,
		"citta":     u.Citta,
	})
}

func (b *Bot) showNotifications(ctx context.Context, chatID int64, app *controller.App) {
	if !b.requireSession(chatID, app) {
		return
	}
	n, err := app.RefreshUnread(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	text := "🔕 Nessuna notifica non letta."
	if n > 0 {
		text = fmt.Sprintf("🔔 Hai *%d* notifiche non lette.", n)
	}
	b.render(chatID, 0, text, markup(row(button("💬 Apri chat", "chats"))))
}

// userListReply renders users with a button opening each profile.
func userListReply(users []models.User) (string, *tgbotapi.InlineKeyboardMarkup) {
	if len(users) == 0 {
		return "🔍 Nessun utente trovato.", nil
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔍 *Utenti trovati: %d*\n\n", len(users)))
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, u := range users {
		sb.WriteString(fmt.Sprintf("%d. %s (%s) - %s\n", i+1, escape(u.FullName()), escape(u.DisplayName()), u.Ruolo.Label()))
		if i < 20 {
			rows = append(rows, row(button(fmt.Sprintf("%d. %s", i+1, u.DisplayName()), "admin:user:"+u.ID)))
		}
	}
	return sb.String(), markup(rows...)
}
