package bot

import (
	"context"
	"fmt"
	"strings"

	"clubly/internal/controller"
	"clubly/internal/models"
)

const (
	formLogin       = "login"
	formRegister    = "register"
	formSetup       = "setup"
	formPassword    = "password"
	formProfile     = "profile"
	formCreateEvent = "create_event"
	formEditEvent   = "edit_event"
	formEditLimited = "edit_event_limited"
	formPoster      = "event_poster"
	formCreateOrg   = "create_organization"
	formEditOrg     = "edit_organization"
	formCredentials = "credentials"
	formSearch      = "user_search"
)

func buildForms() map[string]*formSpec {
	forms := []*formSpec{
		loginForm(),
		registerForm(),
		setupForm(),
		passwordForm(),
		profileForm(),
		createEventForm(),
		editEventForm(),
		editLimitedForm(),
		posterForm(),
		createOrganizationForm(),
		editOrganizationForm(),
		credentialsForm(),
		searchForm(),
	}
	out := make(map[string]*formSpec, len(forms))
	for _, f := range forms {
		out[f.name] = f
	}
	return out
}

func parseSecret(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", errRequired
	}
	return s, nil
}

func welcomeReply(app *controller.App) formReply {
	u := app.User()
	if u == nil {
		return formReply{}
	}
	name := u.Nome
	if name == "" {
		name = u.Username
	}
	return formReply{text: fmt.Sprintf("✅ Benvenuto, *%s*!", escape(name))}
}

func loginForm() *formSpec {
	return &formSpec{
		name:        formLogin,
		title:       "🔐 *Accedi a Clubly*",
		anonymous:   true,
		refreshMenu: true,
		fields: []formField{
			{key: "identifier", step: models.StepLoginIdentifier, prompt: "📧 Email o username:"},
			{key: "password", step: models.StepLoginPassword, prompt: "🔑 Password:", secret: true, parse: parseSecret},
		},
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			if err := app.Login(ctx, v["identifier"], v["password"]); err != nil {
				return formReply{}, err
			}
			return welcomeReply(app), nil
		},
	}
}

func registerForm() *formSpec {
	return &formSpec{
		name:        formRegister,
		title:       "📝 *Registrati su Clubly*",
		anonymous:   true,
		refreshMenu: true,
		fields: []formField{
			{key: "nome", step: models.StepRegisterField, prompt: "👤 Nome:"},
			{key: "cognome", step: models.StepRegisterField, prompt: "👤 Cognome:", optional: true},
			{key: "email", step: models.StepRegisterField, prompt: "📧 Email:", parse: parseEmail},
			{key: "username", step: models.StepRegisterField, prompt: "🏷 Username:", parse: parseUsername},
			{key: "password", step: models.StepRegisterField, prompt: "🔑 Password (almeno 6 caratteri):", secret: true, parse: parsePassword},
			{key: "data_nascita", step: models.StepRegisterField, prompt: "🎂 Data di nascita (GG/MM/AAAA):", optional: true, parse: parseDate},
			{key: "citta", step: models.StepRegisterField, prompt: "🏙 Città:", optional: true},
		},
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			err := app.Register(ctx, models.RegisterRequest{
				Nome:        v["nome"],
				Cognome:     v["cognome"],
				Email:       v["email"],
				Username:    v["username"],
				Password:    v["password"],
				DataNascita: v["data_nascita"],
				Citta:       v["citta"],
				Ruolo:       models.RoleCliente,
			})
			if err != nil {
				return formReply{}, err
			}
			return welcomeReply(app), nil
		},
	}
}

func setupForm() *formSpec {
	return &formSpec{
		name:        formSetup,
		title:       "👋 *Completa il tuo profilo*\nPrima di continuare servono alcune informazioni.",
		gate:        true,
		refreshMenu: true,
		fields: []formField{
			{key: "cognome", step: models.StepSetupField, prompt: "👤 Cognome:"},
			{key: "username", step: models.StepSetupField, prompt: "🏷 Username:", parse: parseUsername},
			{key: "data_nascita", step: models.StepSetupField, prompt: "🎂 Data di nascita (GG/MM/AAAA):", parse: parseDate},
			{key: "citta", step: models.StepSetupField, prompt: "🏙 Città:"},
			{key: "profile_image", step: models.StepSetupField, prompt: "🖼 Link della foto profilo:", optional: true, parse: parseURL},
		},
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			err := app.CompleteSetup(ctx, models.SetupRequest{
				Cognome:      v["cognome"],
				Username:     v["username"],
				DataNascita:  v["data_nascita"],
				Citta:        v["citta"],
				ProfileImage: v["profile_image"],
			})
			if err != nil {
				return formReply{}, err
			}
			return formReply{text: "✅ Profilo completato!"}, nil
		},
	}
}

func passwordForm() *formSpec {
	return &formSpec{
		name:        formPassword,
		title:       "🔑 *Cambia la password*\nLa password attuale è temporanea: scegline una nuova.",
		gate:        true,
		refreshMenu: true,
		fields: []formField{
			{key: "current", step: models.StepPasswordCurrent, prompt: "Password attuale:", secret: true, parse: parseSecret},
			{key: "new", step: models.StepPasswordNew, prompt: "Nuova password (almeno 6 caratteri):", secret: true, parse: parsePassword},
			{key: "confirm", step: models.StepPasswordNew, prompt: "Ripeti la nuova password:", secret: true, parse: parseSecret},
		},
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			if v["new"] != v["confirm"] {
				return formReply{}, errPasswordMismatch
			}
			if err := app.ChangePassword(ctx, v["current"], v["new"]); err != nil {
				return formReply{}, err
			}
			return formReply{text: "✅ Password aggiornata."}, nil
		},
	}
}

func profileForm() *formSpec {
	return &formSpec{
		name:  formProfile,
		title: "✏️ *Modifica profilo*",
		fields: []formField{
			{key: "nome", step: models.StepProfileField, prompt: "👤 Nome:"},
			{key: "username", step: models.StepProfileField, prompt: "🏷 Username:", parse: parseUsername},
			{key: "biografia", step: models.StepProfileField, prompt: "📝 Biografia:", optional: true},
			{key: "citta", step: models.StepProfileField, prompt: "🏙 Città:", optional: true},
		},
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			err := app.EditProfile(ctx, models.ProfileEditRequest{
				Nome:      v["nome"],
				Username:  v["username"],
				Biografia: v["biografia"],
				Citta:     v["citta"],
			})
			if err != nil {
				return formReply{}, err
			}
			return formReply{text: profileText(app.User())}, nil
		},
	}
}

func eventFields(edit bool) []formField {
	fields := []formField{
		{key: "name", step: models.StepEventField, prompt: "🎉 Nome dell'evento:"},
		{key: "date", step: models.StepEventField, prompt: "📅 Data (GG/MM/AAAA):", parse: parseDate},
		{key: "start_time", step: models.StepEventField, prompt: "🕙 Orario di inizio (HH:MM):", parse: parseClock},
		{key: "end_time", step: models.StepEventField, prompt: "🕔 Orario di fine (HH:MM):", optional: true, parse: parseClock},
		{key: "location", step: models.StepEventField, prompt: "📍 Locale:"},
		{key: "location_address", step: models.StepEventField, prompt: "🗺 Indirizzo:", optional: true},
		{key: "organization", step: models.StepEventField, prompt: "🏢 Organizzazione:"},
		{key: "lineup", step: models.StepEventField, prompt: "🎧 Lineup (nomi separati da virgola):", optional: true, parse: parseList},
		{key: "guests", step: models.StepEventField, prompt: "⭐ Ospiti (separati da virgola):", optional: true, parse: parseList},
		{key: "total_tables", step: models.StepEventField, prompt: "🪑 Numero totale di tavoli:", parse: parseCount},
	}
	if edit {
		fields = append(fields, formField{key: "tables_available", step: models.StepEventField, prompt: "🪑 Tavoli ancora disponibili:", parse: parseCount})
	}
	return append(fields,
		formField{key: "max_party_size", step: models.StepEventField, prompt: "👥 Persone massime per prenotazione:", optional: true, parse: parsePartyLimit},
		formField{key: "event_poster", step: models.StepEventField, prompt: "🖼 Link del poster:", optional: true, parse: parseURL},
	)
}

func eventInput(v formValues) models.EventInput {
	in := models.EventInput{
		Name:            v["name"],
		Date:            v["date"],
		StartTime:       v["start_time"],
		EndTime:         v["end_time"],
		Location:        v["location"],
		LocationAddress: v["location_address"],
		Organization:    v["organization"],
		Lineup:          v.list("lineup"),
		Guests:          v.list("guests"),
		TotalTables:     v.int("total_tables"),
		TablesAvailable: v.int("total_tables"),
		MaxPartySize:    v.int("max_party_size"),
		EventPoster:     v["event_poster"],
	}
	if _, ok := v["tables_available"]; ok {
		in.TablesAvailable = v.int("tables_available")
	}
	return in
}

// eventPrefill turns an event into form answers for the edit forms.
func eventPrefill(e models.Event) map[string]string {
	p := map[string]string{
		"event_id":         e.ID,
		"name":             e.Name,
		"date":             e.Date,
		"start_time":       e.StartTime,
		"end_time":         e.EndTime,
		"location":         e.Location,
		"location_address": e.LocationAddress,
		"organization":     e.Organization,
		"lineup":           strings.Join(e.Lineup, ", "),
		"guests":           strings.Join(e.Guests, ", "),
		"total_tables":     fmt.Sprint(e.TotalTables),
		"tables_available": fmt.Sprint(e.TablesAvailable),
		"event_poster":     e.EventPoster,
	}
	if e.MaxPartySize > 0 {
		p["max_party_size"] = fmt.Sprint(e.MaxPartySize)
	}
	return p
}

func createEventForm() *formSpec {
	return &formSpec{
		name:   formCreateEvent,
		title:  "➕ *Nuovo evento*",
		fields: eventFields(false),
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			id, err := app.CreateEvent(ctx, eventInput(v))
			if err != nil {
				return formReply{}, err
			}
			return formReply{
				text:     fmt.Sprintf("✅ Evento *%s* creato.", escape(v["name"])),
				keyboard: markup(row(button("👀 Apri evento", "event:"+id), button("📊 Dashboard", "dash:refresh"))),
			}, nil
		},
	}
}

func editEventForm() *formSpec {
	return &formSpec{
		name:   formEditEvent,
		title:  "✏️ *Modifica evento*",
		fields: eventFields(true),
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			id := v["event_id"]
			if err := app.UpdateEvent(ctx, id, eventInput(v)); err != nil {
				return formReply{}, err
			}
			return formReply{
				text:     "✅ Evento aggiornato.",
				keyboard: markup(row(button("👀 Apri evento", "event:"+id))),
			}, nil
		},
	}
}

func editLimitedForm() *formSpec {
	return &formSpec{
		name:  formEditLimited,
		title: "✏️ *Modifica evento*",
		fields: []formField{
			{key: "name", step: models.StepEventField, prompt: "🎉 Nome dell'evento:"},
			{key: "lineup", step: models.StepEventField, prompt: "🎧 Lineup (nomi separati da virgola):", optional: true, parse: parseList},
			{key: "start_time", step: models.StepEventField, prompt: "🕙 Orario di inizio (HH:MM):", parse: parseClock},
			{key: "end_time", step: models.StepEventField, prompt: "🕔 Orario di fine (HH:MM):", optional: true, parse: parseClock},
			{key: "guests", step: models.StepEventField, prompt: "⭐ Ospiti (separati da virgola):", optional: true, parse: parseList},
			{key: "event_poster", step: models.StepEventField, prompt: "🖼 Link del poster:", optional: true, parse: parseURL},
		},
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			id := v["event_id"]
			err := app.UpdateEventLimited(ctx, id, models.EventLimitedInput{
				Name:        v["name"],
				Lineup:      v.list("lineup"),
				StartTime:   v["start_time"],
				EndTime:     v["end_time"],
				Guests:      v.list("guests"),
				EventPoster: v["event_poster"],
			})
			if err != nil {
				return formReply{}, err
			}
			return formReply{
				text:     "✅ Evento aggiornato.",
				keyboard: markup(row(button("👀 Apri evento", "event:"+id))),
			}, nil
		},
	}
}

func posterForm() *formSpec {
	return &formSpec{
		name:  formPoster,
		title: "🖼 *Aggiorna poster*",
		fields: []formField{
			{key: "event_poster", step: models.StepPosterURL, prompt: "Link dell'immagine del poster:", parse: parseURL},
		},
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			id := v["event_id"]
			if err := app.UpdateEventPoster(ctx, id, v["event_poster"]); err != nil {
				return formReply{}, err
			}
			return formReply{
				text:     "✅ Poster aggiornato.",
				keyboard: markup(row(button("👀 Apri evento", "event:"+id))),
			}, nil
		},
	}
}

func organizationFields() []formField {
	return []formField{
		{key: "name", step: models.StepOrganizationField, prompt: "🏢 Nome dell'organizzazione:"},
		{key: "location", step: models.StepOrganizationField, prompt: "📍 Città o locale:"},
		{key: "capo_promoter_username", step: models.StepOrganizationField, prompt: "👑 Username del capo promoter:", optional: true, parse: parseUsername},
	}
}

func organizationInput(v formValues) models.OrganizationInput {
	return models.OrganizationInput{
		Name:                 v["name"],
		Location:             v["location"],
		CapoPromoterUsername: v["capo_promoter_username"],
	}
}

func createOrganizationForm() *formSpec {
	return &formSpec{
		name:   formCreateOrg,
		title:  "➕ *Nuova organizzazione*",
		fields: organizationFields(),
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			id, err := app.CreateOrganization(ctx, organizationInput(v))
			if err != nil {
				return formReply{}, err
			}
			return formReply{
				text:     fmt.Sprintf("✅ Organizzazione *%s* creata.", escape(v["name"])),
				keyboard: markup(row(button("🏢 Apri", "admin:org:"+id))),
			}, nil
		},
	}
}

func editOrganizationForm() *formSpec {
	return &formSpec{
		name:   formEditOrg,
		title:  "✏️ *Modifica organizzazione*",
		fields: organizationFields(),
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			id := v["org_id"]
			if err := app.UpdateOrganization(ctx, id, organizationInput(v)); err != nil {
				return formReply{}, err
			}
			return formReply{
				text:     "✅ Organizzazione aggiornata.",
				keyboard: markup(row(button("🏢 Apri", "admin:org:"+id))),
			}, nil
		},
	}
}

func credentialsForm() *formSpec {
	return &formSpec{
		name:  formCredentials,
		title: "🔑 *Credenziali temporanee*\nL'utente dovrà cambiare la password al primo accesso.",
		fields: []formField{
			{key: "nome", step: models.StepCredentialsField, prompt: "👤 Nome:"},
			{key: "email", step: models.StepCredentialsField, prompt: "📧 Email:", parse: parseEmail},
			{key: "password", step: models.StepCredentialsField, prompt: "🔑 Password temporanea (almeno 6 caratteri):", secret: true, parse: parsePassword},
			{key: "ruolo", step: models.StepCredentialsField, prompt: "🎭 Ruolo (promoter, capo_promoter, clubly_founder):", optional: true, parse: parseRole},
			{key: "organization", step: models.StepCredentialsField, prompt: "🏢 Organizzazione:", optional: true},
		},
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			role := models.Role(v["ruolo"])
			if role == "" {
				role = models.RolePromoter
			}
			res, err := app.IssueCredentials(ctx, models.TemporaryCredentialsRequest{
				Nome:         v["nome"],
				Email:        v["email"],
				Password:     v["password"],
				Ruolo:        role,
				Organization: v["organization"],
			})
			if err != nil {
				return formReply{}, err
			}
			var sb strings.Builder
			sb.WriteString("✅ *Credenziali create*\n\n")
			sb.WriteString(fmt.Sprintf("📧 Email: %s\n", escape(v["email"])))
			sb.WriteString(fmt.Sprintf("🔑 Password temporanea: `%s`\n", v["password"]))
			if res.Organization != "" {
				sb.WriteString(fmt.Sprintf("🏢 Organizzazione: %s\n", escape(res.Organization)))
			}
			return formReply{text: sb.String()}, nil
		},
	}
}

func searchForm() *formSpec {
	return &formSpec{
		name:  formSearch,
		title: "🔍 *Cerca utenti*",
		fields: []formField{
			{key: "search_term", step: models.StepSearchField, prompt: "Nome, username o email:", optional: true},
			{key: "role_filter", step: models.StepSearchField, prompt: "Ruolo (cliente, promoter, capo_promoter, clubly_founder):", optional: true, parse: parseRole},
			{key: "creation_date_from", step: models.StepSearchField, prompt: "Registrati dal (GG/MM/AAAA):", optional: true, parse: parseDate},
			{key: "creation_date_to", step: models.StepSearchField, prompt: "Registrati fino al (GG/MM/AAAA):", optional: true, parse: parseDate},
		},
		submit: func(ctx context.Context, app *controller.App, v formValues) (formReply, error) {
			users, err := app.SearchUsers(ctx, models.UserSearchRequest{
				SearchTerm:       v["search_term"],
				RoleFilter:       v["role_filter"],
				CreationDateFrom: v["creation_date_from"],
				CreationDateTo:   v["creation_date_to"],
			})
			if err != nil {
				return formReply{}, err
			}
			text, keyboard := userListReply(users)
			return formReply{text: text, keyboard: keyboard}, nil
		},
	}
}
