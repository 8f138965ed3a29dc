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

const forbiddenText = "⛔ Non hai i permessi per questa operazione."

func isFounder(u *models.User) bool {
	return u != nil && u.Ruolo == models.RoleClublyFounder
}

func isStaffLead(u *models.User) bool {
	return u != nil && (u.Ruolo == models.RoleCapoPromoter || u.Ruolo == models.RoleClublyFounder)
}

// handleAdminCallback serves the staff actions, "admin:<action>[:<args>]".
// The backend enforces permissions again; the role checks here only keep
// buttons from leading nowhere.
func (b *Bot) handleAdminCallback(ctx context.Context, chatID int64, messageID int, userID int64, arg string, app *controller.App) {
	if !b.requireSession(chatID, app) {
		return
	}
	u := app.User()
	action, rest, _ := strings.Cut(arg, ":")

	allowed := isFounder(u)
	switch action {
	case "edit_limited", "poster", "team", "credentials":
		allowed = isStaffLead(u)
	}
	if !allowed {
		b.sendMessage(chatID, forbiddenText)
		return
	}

	switch action {
	case "create_event":
		if b.openOverlay(ctx, chatID, app, controller.CreateEventOverlay()) {
			b.startForm(ctx, chatID, userID, formCreateEvent, nil)
		}
	case "edit_event", "edit_limited", "poster":
		b.startEventEdit(ctx, chatID, userID, action, rest, app)
	case "delete_event":
		b.confirmDeleteEvent(ctx, chatID, messageID, rest, app)
	case "confirm_delete":
		if err := app.DeleteEvent(ctx, rest); err != nil {
			b.sendError(chatID, err)
			return
		}
		b.render(chatID, messageID, "🗑 Evento eliminato.", nil)
		b.showEvents(ctx, chatID, 0, 0, app)

	case "orgs":
		b.showOrganizations(ctx, chatID, messageID, app)
	case "org":
		b.showOrganization(ctx, chatID, messageID, rest, app)
	case "create_org":
		if b.openOverlay(ctx, chatID, app, controller.CreateOrganizationOverlay()) {
			b.startForm(ctx, chatID, userID, formCreateOrg, nil)
		}
	case "edit_org":
		b.startOrganizationEdit(ctx, chatID, userID, rest, app)
	case "assign":
		b.showCapoCandidates(ctx, chatID, messageID, rest, app)
	case "assign_to":
		// the organization comes from the open overlay: callback data is limited to 64 bytes
		o := app.Overlay()
		if o.Kind != controller.OverlayEditOrganization || o.Organization == nil {
			b.sendMessage(chatID, "⚠️ Scegli prima l'organizzazione.")
			return
		}
		orgID := o.Organization.ID
		if err := app.AssignCapoPromoter(ctx, orgID, rest); err != nil {
			b.sendError(chatID, err)
			return
		}
		app.CloseOverlay()
		b.sendMessage(chatID, "✅ Capo promoter assegnato.")
		b.showOrganization(ctx, chatID, 0, orgID, app)

	case "credentials":
		if !b.openOverlay(ctx, chatID, app, controller.IssueCredentialsOverlay()) {
			return
		}
		var prefill map[string]string
		if u.Ruolo == models.RoleCapoPromoter {
			prefill = map[string]string{"ruolo": string(models.RolePromoter), "organization": u.Organization}
		}
		b.startForm(ctx, chatID, userID, formCredentials, prefill)
	case "search":
		if b.openOverlay(ctx, chatID, app, controller.UserSearchOverlay()) {
			b.startForm(ctx, chatID, userID, formSearch, nil)
		}
	case "user":
		profile, err := app.UserProfile(ctx, rest)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.render(chatID, 0, profileText(profile), nil)
	case "team":
		b.showTeam(ctx, chatID, messageID, app)

	default:
		zerolog.Ctx(ctx).Warn().Str("action", action).Msg("Unknown admin action")
	}
}

func (b *Bot) startEventEdit(ctx context.Context, chatID, userID int64, action, eventID string, app *controller.App) {
	e, err := app.Catalog().Lookup(ctx, eventID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event_id", eventID).Msg("Event lookup failed")
		b.sendMessage(chatID, "⚠️ Evento non trovato.")
		return
	}
	if !b.openOverlay(ctx, chatID, app, controller.EditEventOverlay(e)) {
		return
	}

	switch action {
	case "edit_event":
		b.startForm(ctx, chatID, userID, formEditEvent, eventPrefill(e))
	case "edit_limited":
		b.startForm(ctx, chatID, userID, formEditLimited, eventPrefill(e))
	case "poster":
		b.startForm(ctx, chatID, userID, formPoster, map[string]string{
			"event_id":     e.ID,
			"event_poster": e.EventPoster,
		})
	}
}

func (b *Bot) confirmDeleteEvent(ctx context.Context, chatID int64, messageID int, eventID string, app *controller.App) {
	e, err := app.Catalog().Lookup(ctx, eventID)
	if err != nil {
		b.sendMessage(chatID, "⚠️ Evento non trovato.")
		return
	}
	b.render(chatID, messageID, fmt.Sprintf("🗑 Eliminare definitivamente *%s* del %s?", escape(e.Name), formatDate(e.Date)), markup(
		row(button("✅ Sì, elimina", "admin:confirm_delete:"+e.ID), button("❌ No", "event:"+e.ID)),
	))
}

func (b *Bot) showOrganizations(ctx context.Context, chatID int64, messageID int, app *controller.App) {
	orgs, err := app.Organizations(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏢 *Organizzazioni* (%d)\n\n", len(orgs)))
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, o := range orgs {
		capo := "nessun capo"
		if o.CapoPromoter != nil {
			capo = o.CapoPromoter.DisplayName()
		}
		sb.WriteString(fmt.Sprintf("%d. *%s* · %s · 👑 %s\n", i+1, escape(o.Name), escape(o.Location), escape(capo)))
		rows = append(rows, row(button(fmt.Sprintf("%d. %s", i+1, truncate(o.Name, 30)), "admin:org:"+o.ID)))
	}
	rows = append(rows, row(button("➕ Nuova organizzazione", "admin:create_org")), row(button("⬅️ Dashboard", "dash:refresh")))
	b.render(chatID, messageID, sb.String(), markup(rows...))
}

func (b *Bot) showOrganization(ctx context.Context, chatID int64, messageID int, orgID string, app *controller.App) {
	org, err := app.Organization(ctx, orgID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏢 *%s*\n📍 %s\n", escape(org.Name), escape(org.Location)))
	if org.CapoPromoter != nil {
		sb.WriteString(fmt.Sprintf("👑 Capo: %s\n", escape(org.CapoPromoter.DisplayName())))
	} else {
		sb.WriteString("👑 Nessun capo promoter\n")
	}
	if len(org.Members) > 0 {
		sb.WriteString(fmt.Sprintf("\n👥 *Membri* (%d)\n", len(org.Members)))
		for _, m := range org.Members {
			sb.WriteString(fmt.Sprintf("• %s (%s)\n", escape(m.FullName()), m.Ruolo.Label()))
		}
	}
	if len(org.Events) > 0 {
		writeEvents(&sb, org.Events, 10)
	}

	b.render(chatID, messageID, sb.String(), markup(
		row(button("✏️ Modifica", "admin:edit_org:"+org.ID), button("👑 Assegna capo", "admin:assign:"+org.ID)),
		row(button("⬅️ Organizzazioni", "admin:orgs")),
	))
}

func (b *Bot) startOrganizationEdit(ctx context.Context, chatID, userID int64, orgID string, app *controller.App) {
	org, err := app.Organization(ctx, orgID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if !b.openOverlay(ctx, chatID, app, controller.EditOrganizationOverlay(*org)) {
		return
	}
	prefill := map[string]string{
		"org_id":   org.ID,
		"name":     org.Name,
		"location": org.Location,
	}
	if org.CapoPromoter != nil {
		prefill["capo_promoter_username"] = org.CapoPromoter.Username
	}
	b.startForm(ctx, chatID, userID, formEditOrg, prefill)
}

func (b *Bot) showCapoCandidates(ctx context.Context, chatID int64, messageID int, orgID string, app *controller.App) {
	org, err := app.Organization(ctx, orgID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if !b.openOverlay(ctx, chatID, app, controller.EditOrganizationOverlay(*org)) {
		return
	}
	users, err := app.AvailableCapoPromoters(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(users) == 0 {
		b.render(chatID, messageID, "👑 Nessun capo promoter disponibile.", markup(row(button("⬅️ Indietro", "admin:org:"+orgID))))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, u := range users {
		rows = append(rows, row(button(fmt.Sprintf("%s (%s)", u.FullName(), u.DisplayName()), "admin:assign_to:"+u.ID)))
	}
	rows = append(rows, row(button("⬅️ Indietro", "admin:org:"+orgID)))
	b.render(chatID, messageID, fmt.Sprintf("👑 *Scegli il capo promoter di %s*", escape(org.Name)), markup(rows...))
}

func (b *Bot) showTeam(ctx context.Context, chatID int64, messageID int, app *controller.App) {
	team, err := app.TeamPromoters(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👥 *Il tuo team* (%d)\n\n", len(team)))
	if len(team) == 0 {
		sb.WriteString("Nessun promoter. Crea le credenziali per aggiungerne uno.\n")
	}
	for i, p := range team {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, escape(p.FullName()), escape(p.DisplayName())))
	}
	b.render(chatID, messageID, sb.String(), markup(
		row(button("🔑 Nuove credenziali", "admin:credentials")),
		row(button("⬅️ Dashboard", "dash:refresh")),
	))
}
