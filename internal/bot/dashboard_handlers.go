package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"clubly/internal/controller"
	"clubly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var viewLabels = map[models.DashboardView]string{
	models.ViewMain:          "🏠 Home",
	models.ViewPromoter:      "🎤 Promoter",
	models.ViewCapoPromoter:  "👑 Capo",
	models.ViewClublyFounder: "🏛 Founder",
}

// showDashboard opens the dashboard on the highest view the role allows,
// unless another view is already selected.
func (b *Bot) showDashboard(ctx context.Context, chatID int64, messageID int, app *controller.App) {
	if !b.requireSession(chatID, app) {
		return
	}
	u := app.User()
	views := u.DashboardViews()
	if len(views) == 0 {
		b.render(chatID, messageID, "📊 La dashboard è riservata allo staff Clubly.", nil)
		return
	}

	state := app.Dashboard()
	if state.View == models.ViewMain {
		if err := app.SetView(ctx, views[len(views)-1]); err != nil {
			b.sendError(chatID, err)
		}
	} else if state.Data == nil {
		if err := app.Refresh(ctx); err != nil {
			b.sendError(chatID, err)
		}
	}
	b.renderDashboard(chatID, messageID, app)
}

func (b *Bot) handleDashboardView(ctx context.Context, chatID int64, messageID int, arg string, app *controller.App) {
	if !b.requireSession(chatID, app) {
		return
	}
	var err error
	if arg == "refresh" {
		err = app.Refresh(ctx)
	} else {
		err = app.SetView(ctx, models.DashboardView(arg))
	}
	if err != nil {
		b.sendError(chatID, err)
		if !app.Authenticated() {
			return
		}
	}
	b.renderDashboard(chatID, messageID, app)
}

func writeStats(sb *strings.Builder, stats map[string]int) {
	if len(stats) == 0 {
		return
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sb.WriteString("\n📈 *Statistiche*\n")
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("• %s: %d\n", escape(strings.ReplaceAll(k, "_", " ")), stats[k]))
	}
}

func writeEvents(sb *strings.Builder, events []models.Event, limit int) {
	sb.WriteString(fmt.Sprintf("\n🎉 *Eventi* (%d)\n", len(events)))
	for i, e := range events {
		if i == limit {
			sb.WriteString(fmt.Sprintf("… e altri %d\n", len(events)-limit))
			break
		}
		sb.WriteString(fmt.Sprintf("• %s - %s · 🪑 %d/%d\n", escape(e.Name), formatDate(e.Date), e.TablesAvailable, e.TotalTables))
	}
}

func dashboardText(state controller.DashboardState) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *Dashboard* · %s\n", viewLabels[state.View]))

	d := state.Data
	if d == nil {
		switch {
		case state.Loading:
			sb.WriteString("\n⏳ Caricamento...")
		case state.Err != nil:
			sb.WriteString("\n⚠️ Impossibile caricare la dashboard. Riprova con 🔄.")
		default:
			sb.WriteString("\nScegli una sezione.")
		}
		return sb.String()
	}

	switch state.View {
	case models.ViewPromoter:
		writeEvents(&sb, d.Events, 10)
		sb.WriteString(fmt.Sprintf("\n💬 Chat attive: %d\n", len(d.Chats)))
	case models.ViewCapoPromoter:
		if d.Organization != nil {
			sb.WriteString(fmt.Sprintf("\n🏢 *%s* · %s\n", escape(d.Organization.Name), escape(d.Organization.Location)))
		}
		sb.WriteString(fmt.Sprintf("\n👥 *Team* (%d)\n", len(d.Members)))
		for _, m := range d.Members {
			sb.WriteString(fmt.Sprintf("• %s (%s)\n", escape(m.FullName()), escape(m.DisplayName())))
		}
		writeEvents(&sb, d.Events, 10)
	case models.ViewClublyFounder:
		sb.WriteString(fmt.Sprintf("\n🏢 Organizzazioni: %d\n👤 Utenti: %d\n🎉 Eventi: %d\n",
			len(d.Organizations), len(d.Users), len(d.Events)))
		writeEvents(&sb, d.Events, 5)
	}
	writeStats(&sb, d.Stats)
	if state.Err != nil {
		sb.WriteString("\n⚠️ Dati non aggiornati: l'ultimo aggiornamento non è riuscito.")
	}
	return sb.String()
}

func dashboardKeyboard(state controller.DashboardState, u *models.User) *tgbotapi.InlineKeyboardMarkup {
	var tabs []tgbotapi.InlineKeyboardButton
	for _, v := range u.DashboardViews() {
		label := viewLabels[v]
		if v == state.View {
			label = "• " + label
		}
		tabs = append(tabs, button(label, "dash:"+string(v)))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{tabs}
	switch state.View {
	case models.ViewCapoPromoter:
		rows = append(rows, row(button("👥 Team", "admin:team"), button("🔑 Credenziali", "admin:credentials")))
	case models.ViewClublyFounder:
		rows = append(rows,
			row(button("➕ Nuovo evento", "admin:create_event"), button("🏢 Organizzazioni", "admin:orgs")),
			row(button("🔑 Credenziali", "admin:credentials"), button("🔍 Cerca utenti", "admin:search")),
			row(button("📥 Esporta Excel", "export")),
		)
	}
	rows = append(rows, row(button("🔄 Aggiorna", "dash:refresh")))
	return markup(rows...)
}

func (b *Bot) renderDashboard(chatID int64, messageID int, app *controller.App) {
	u := app.User()
	if u == nil {
		return
	}
	state := app.Dashboard()
	b.render(chatID, messageID, dashboardText(state), dashboardKeyboard(state, u))
}
