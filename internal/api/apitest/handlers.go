package apitest

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"clubly/internal/models"

	"github.com/go-chi/chi/v5"
)

// ---- auth and profile ----

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	var found *account
	for _, acc := range b.accounts {
		if (strings.EqualFold(acc.user.Email, req.Login) || acc.user.Username == req.Login) && acc.password == req.Password {
			found = acc
			break
		}
	}
	b.mu.Unlock()
	if found == nil {
		writeDetail(w, http.StatusUnauthorized, "Credenziali non valide")
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResponse{Token: b.Token(found.user.ID), User: found.user})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	for _, acc := range b.accounts {
		if strings.EqualFold(acc.user.Email, req.Email) || acc.user.Username == req.Username {
			b.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "Utente già esistente")
			return
		}
	}
	role := req.Ruolo
	if role == "" {
		role = models.RoleCliente
	}
	u := models.User{
		ID:          b.nextID("U"),
		Nome:        req.Nome,
		Cognome:     req.Cognome,
		Email:       req.Email,
		Username:    req.Username,
		Ruolo:       role,
		DataNascita: req.DataNascita,
		Citta:       req.Citta,
		CreatedAt:   time.Now().Format("2006-01-02"),
	}
	b.accounts[u.ID] = &account{user: u, password: req.Password}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, models.AuthResponse{Token: b.Token(u.ID), User: u})
}

func (b *Backend) profile(w http.ResponseWriter, r *http.Request) {
	u, _ := b.User(userID(r))
	writeJSON(w, http.StatusOK, u)
}

func (b *Backend) setup(w http.ResponseWriter, r *http.Request) {
	var req models.SetupRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	acc := b.accounts[userID(r)]
	if b.usernameTaken(req.Username, acc.user.ID) {
		b.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Username già in uso")
		return
	}
	acc.user.Cognome = req.Cognome
	acc.user.Username = req.Username
	acc.user.DataNascita = req.DataNascita
	acc.user.Citta = req.Citta
	acc.user.ProfileImage = req.ProfileImage
	acc.user.NeedsSetup = false
	u := acc.user
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, models.UserEnvelope{User: u})
}

func (b *Backend) changePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	acc := b.accounts[userID(r)]
	if acc.password != req.CurrentPassword {
		b.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Password attuale non corretta")
		return
	}
	acc.password = req.NewPassword
	acc.user.NeedsPasswordChange = false
	u := acc.user
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"message": "Password aggiornata", "user": u})
}

func (b *Backend) editProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileEditRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	acc := b.accounts[userID(r)]
	if b.usernameTaken(req.Username, acc.user.ID) {
		b.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Username già in uso")
		return
	}
	acc.user.Nome = req.Nome
	acc.user.Username = req.Username
	acc.user.Biografia = req.Biografia
	acc.user.Citta = req.Citta
	u := acc.user
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, models.UserEnvelope{User: u})
}

func (b *Backend) usernameTaken(username, except string) bool {
	for id, acc := range b.accounts {
		if id != except && acc.user.Username == username {
			return true
		}
	}
	return false
}

// ---- events ----

func (b *Backend) listEvents(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	events := append([]models.Event{}, b.events...)
	b.mu.Unlock()
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date < events[j].Date })
	writeJSON(w, http.StatusOK, events)
}

func (b *Backend) getEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := b.Event(chi.URLParam(r, "id"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Evento non trovato")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (b *Backend) requireRole(w http.ResponseWriter, r *http.Request, roles ...models.Role) (models.User, bool) {
	u, _ := b.User(userID(r))
	for _, role := range roles {
		if u.Ruolo == role {
			return u, true
		}
	}
	writeDetail(w, http.StatusForbidden, "Non autorizzato")
	return u, false
}

func (b *Backend) createEvent(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireRole(w, r, models.RoleClublyFounder); !ok {
		return
	}
	var in models.EventInput
	if !decode(w, r, &in) {
		return
	}
	e := b.AddEvent(eventFromInput("", in))
	writeJSON(w, http.StatusOK, models.EventCreated{Message: "Evento creato con successo", EventID: e.ID})
}

func eventFromInput(id string, in models.EventInput) models.Event {
	return models.Event{
		ID:              id,
		Name:            in.Name,
		Date:            in.Date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		Location:        in.Location,
		LocationAddress: in.LocationAddress,
		Organization:    in.Organization,
		Lineup:          in.Lineup,
		Guests:          in.Guests,
		TotalTables:     in.TotalTables,
		TablesAvailable: in.TablesAvailable,
		MaxPartySize:    in.MaxPartySize,
		TableTypes:      in.TableTypes,
		EventPoster:     in.EventPoster,
	}
}

func (b *Backend) mutateEvent(w http.ResponseWriter, r *http.Request, fn func(e *models.Event)) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.events {
		if b.events[i].ID == id {
			fn(&b.events[i])
			writeJSON(w, http.StatusOK, map[string]string{"message": "Evento aggiornato con successo"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Evento non trovato")
}

func (b *Backend) updateEvent(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireRole(w, r, models.RoleClublyFounder); !ok {
		return
	}
	var in models.EventInput
	if !decode(w, r, &in) {
		return
	}
	b.mutateEvent(w, r, func(e *models.Event) {
		*e = eventFromInput(e.ID, in)
	})
}

func (b *Backend) updateEventLimited(w http.ResponseWriter, r *http.Request) {
	u, ok := b.requireRole(w, r, models.RoleCapoPromoter, models.RoleClublyFounder)
	if !ok {
		return
	}
	var in models.EventLimitedInput
	if !decode(w, r, &in) {
		return
	}
	if e, found := b.Event(chi.URLParam(r, "id")); found && u.Ruolo == models.RoleCapoPromoter && e.Organization != u.Organization {
		writeDetail(w, http.StatusForbidden, "Puoi modificare solo gli eventi della tua organizzazione")
		return
	}
	b.mutateEvent(w, r, func(e *models.Event) {
		e.Name = in.Name
		e.Lineup = in.Lineup
		e.StartTime = in.StartTime
		e.EndTime = in.EndTime
		e.Guests = in.Guests
		if in.EventPoster != "" {
			e.EventPoster = in.EventPoster
		}
	})
}

func (b *Backend) updatePoster(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireRole(w, r, models.RoleCapoPromoter, models.RoleClublyFounder); !ok {
		return
	}
	var in models.EventPosterRequest
	if !decode(w, r, &in) {
		return
	}
	b.mutateEvent(w, r, func(e *models.Event) { e.EventPoster = in.EventPoster })
}

func (b *Backend) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireRole(w, r, models.RoleClublyFounder); !ok {
		return
	}
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.events {
		if b.events[i].ID == id {
			b.events = append(b.events[:i], b.events[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Evento eliminato"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Evento non trovato")
}

// ---- bookings and chats ----

func (b *Backend) createBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.BookingType.Valid() {
		writeDetail(w, http.StatusBadRequest, "Tipo di prenotazione non valido")
		return
	}

	uid := userID(r)
	b.mu.Lock()
	defer b.mu.Unlock()

	var event *models.Event
	for i := range b.events {
		if b.events[i].ID == req.EventID {
			event = &b.events[i]
		}
	}
	if event == nil {
		writeDetail(w, http.StatusNotFound, "Evento non trovato")
		return
	}
	if req.PartySize < 1 || req.PartySize > event.PartyLimit() {
		writeDetail(w, http.StatusBadRequest, "Numero di persone non valido")
		return
	}
	promoter := b.assignPromoter(event.Organization)
	if promoter == nil {
		writeDetail(w, http.StatusBadRequest, "Nessun promoter disponibile per questo evento")
		return
	}
	if req.BookingType == models.BookingTavolo {
		if event.TablesAvailable <= 0 {
			writeDetail(w, http.StatusBadRequest, "Tavoli esauriti")
			return
		}
		event.TablesAvailable--
	}

	booking := models.Booking{
		ID:          b.nextID("B"),
		EventID:     event.ID,
		BookingType: req.BookingType,
		PartySize:   req.PartySize,
		Status:      "pending",
		CreatedAt:   time.Now().Format(time.RFC3339),
	}
	b.bookings[uid] = append(b.bookings[uid], booking)

	c := &chat{id: b.nextID("C"), eventID: event.ID, clientID: uid, promoterID: promoter.ID, createdAt: time.Now()}
	b.chats = append(b.chats, c)

	writeJSON(w, http.StatusOK, models.BookingResult{
		Message:      "Prenotazione creata con successo",
		BookingID:    booking.ID,
		ChatID:       c.id,
		PromoterName: promoter.Nome,
	})
}

// assignPromoter picks the promoter of the organization with the fewest chats.
func (b *Backend) assignPromoter(org string) *models.User {
	load := map[string]int{}
	for _, c := range b.chats {
		load[c.promoterID]++
	}
	var best *models.User
	ids := make([]string, 0, len(b.accounts))
	for id := range b.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		u := &b.accounts[id].user
		if u.Ruolo != models.RolePromoter || (org != "" && u.Organization != org) {
			continue
		}
		if best == nil || load[u.ID] < load[best.ID] {
			best = u
		}
	}
	return best
}

func (b *Backend) listBookings(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	b.mu.Lock()
	out := make([]models.Booking, 0, len(b.bookings[uid]))
	for _, bk := range b.bookings[uid] {
		for i := range b.events {
			if b.events[i].ID == bk.EventID {
				e := b.events[i]
				bk.Event = &e
			}
		}
		out = append(out, bk)
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) chatView(c *chat, viewer string) models.Chat {
	view := models.Chat{ID: c.id, EventID: c.eventID, ClientID: c.clientID, PromoterID: c.promoterID, CreatedAt: c.createdAt.Format(time.RFC3339)}
	for _, e := range b.events {
		if e.ID == c.eventID {
			view.Event = &models.ChatEvent{ID: e.ID, Name: e.Name, Date: e.Date}
		}
	}
	other := c.promoterID
	if viewer == c.promoterID {
		other = c.clientID
	}
	if acc, ok := b.accounts[other]; ok {
		view.OtherParticipant = &models.Participant{
			ID: acc.user.ID, Nome: acc.user.Nome, Cognome: acc.user.Cognome,
			Username: acc.user.Username, Ruolo: acc.user.Ruolo,
		}
	}
	if msgs := b.messages[c.id]; len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		view.LastMessage = &last
	}
	return view
}

func (b *Backend) chatsOf(uid string) []models.Chat {
	out := []models.Chat{}
	for _, c := range b.chats {
		if c.clientID == uid || c.promoterID == uid {
			out = append(out, b.chatView(c, uid))
		}
	}
	return out
}

func (b *Backend) listChats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := b.chatsOf(userID(r))
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) findChat(id, uid string) *chat {
	for _, c := range b.chats {
		if c.id == id && (c.clientID == uid || c.promoterID == uid) {
			return c
		}
	}
	return nil
}

func (b *Backend) chatMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	c := b.findChat(id, userID(r))
	gate := b.gates[id]
	delete(b.gates, id)
	b.mu.Unlock()
	if c == nil {
		writeDetail(w, http.StatusNotFound, "Chat non trovata")
		return
	}
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	b.mu.Lock()
	out := append([]models.Message{}, b.messages[id]...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	uid := userID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.findChat(id, uid) == nil {
		writeDetail(w, http.StatusNotFound, "Chat non trovata")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeDetail(w, http.StatusBadRequest, "Messaggio vuoto")
		return
	}
	msg := b.appendMessage(id, uid, req.Message)
	writeJSON(w, http.StatusOK, models.SendMessageResult{MessageID: msg.ID})
}

func (b *Backend) appendMessage(chatID, senderID, text string) models.Message {
	var role models.Role
	if acc, ok := b.accounts[senderID]; ok {
		role = acc.user.Ruolo
	}
	msg := models.Message{
		ID:         b.nextID("M"),
		ChatID:     chatID,
		SenderID:   senderID,
		SenderRole: role,
		Message:    text,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	b.messages[chatID] = append(b.messages[chatID], msg)
	for _, c := range b.chats {
		if c.id == chatID {
			other := c.promoterID
			if senderID == c.promoterID {
				other = c.clientID
			}
			b.unread[other]++
		}
	}
	return msg
}

func (b *Backend) unreadCount(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	n := b.unread[userID(r)]
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, models.NotificationCount{UnreadCount: n})
}

// ---- dashboards ----

func (b *Backend) dashboard(w http.ResponseWriter, r *http.Request) {
	view := models.DashboardView(chi.URLParam(r, "view"))
	u, _ := b.User(userID(r))
	if !u.CanOpen(view) || view == models.ViewMain {
		writeDetail(w, http.StatusForbidden, "Non autorizzato")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	dash := models.Dashboard{Stats: map[string]int{}}
	switch view {
	case models.ViewPromoter:
		dash.Chats = b.chatsOf(u.ID)
		for _, e := range b.events {
			if e.Organization == u.Organization {
				dash.Events = append(dash.Events, e)
			}
		}
		dash.Stats["active_chats"] = len(dash.Chats)
	case models.ViewCapoPromoter:
		for _, acc := range b.accounts {
			if acc.user.Organization == u.Organization && acc.user.Ruolo == models.RolePromoter {
				dash.Members = append(dash.Members, acc.user)
			}
		}
		for _, e := range b.events {
			if e.Organization == u.Organization {
				dash.Events = append(dash.Events, e)
			}
		}
		dash.Stats["promoters"] = len(dash.Members)
		dash.Stats["events"] = len(dash.Events)
	case models.ViewClublyFounder:
		dash.Events = append(dash.Events, b.events...)
		dash.Organizations = append(dash.Organizations, b.orgs...)
		for _, acc := range b.accounts {
			dash.Users = append(dash.Users, acc.user)
		}
		sort.Slice(dash.Users, func(i, j int) bool { return dash.Users[i].ID < dash.Users[j].ID })
		dash.Stats["users"] = len(dash.Users)
		dash.Stats["events"] = len(dash.Events)
		dash.Stats["organizations"] = len(dash.Organizations)
		dash.Stats["chats"] = len(b.chats)
	}
	writeJSON(w, http.StatusOK, dash)
}

// ---- organizations ----

func (b *Backend) listOrganizations(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := append([]models.Organization{}, b.orgs...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getOrganization(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orgs {
		if o.ID == id {
			writeJSON(w, http.StatusOK, o)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Organizzazione non trovata")
}

func (b *Backend) findByUsername(username string) *account {
	for _, acc := range b.accounts {
		if acc.user.Username == username {
			return acc
		}
	}
	return nil
}

func (b *Backend) createOrganization(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireRole(w, r, models.RoleClublyFounder); !ok {
		return
	}
	var in models.OrganizationInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	for _, o := range b.orgs {
		if strings.EqualFold(o.Name, in.Name) {
			b.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "Organizzazione già esistente")
			return
		}
	}
	org := models.Organization{ID: b.nextID("O"), Name: in.Name, Location: in.Location}
	if in.CapoPromoterUsername != "" {
		acc := b.findByUsername(in.CapoPromoterUsername)
		if acc == nil || acc.user.Ruolo != models.RoleCapoPromoter {
			b.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "Capo promoter non trovato")
			return
		}
		acc.user.Organization = in.Name
		capo := acc.user
		org.CapoPromoter = &capo
	}
	b.orgs = append(b.orgs, org)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, models.OrganizationCreated{Message: "Organizzazione creata", OrganizationID: org.ID})
}

func (b *Backend) updateOrganization(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireRole(w, r, models.RoleClublyFounder); !ok {
		return
	}
	var in models.OrganizationInput
	if !decode(w, r, &in) {
		return
	}
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orgs {
		if b.orgs[i].ID == id {
			b.orgs[i].Name = in.Name
			b.orgs[i].Location = in.Location
			writeJSON(w, http.StatusOK, map[string]string{"message": "Organizzazione aggiornata"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Organizzazione non trovata")
}

func (b *Backend) assignCapo(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireRole(w, r, models.RoleClublyFounder); !ok {
		return
	}
	var in models.AssignCapoPromoterRequest
	if !decode(w, r, &in) {
		return
	}
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[in.CapoPromoterID]
	if !ok || acc.user.Ruolo != models.RoleCapoPromoter {
		writeDetail(w, http.StatusBadRequest, "Capo promoter non trovato")
		return
	}
	for i := range b.orgs {
		if b.orgs[i].ID == id {
			acc.user.Organization = b.orgs[i].Name
			capo := acc.user
			b.orgs[i].CapoPromoter = &capo
			writeJSON(w, http.StatusOK, map[string]string{"message": "Capo promoter assegnato"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Organizzazione non trovata")
}

func (b *Backend) availableCapos(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireRole(w, r, models.RoleClublyFounder); !ok {
		return
	}
	b.mu.Lock()
	out := []models.User{}
	for _, acc := range b.accounts {
		if acc.user.Ruolo == models.RoleCapoPromoter && acc.user.Organization == "" {
			out = append(out, acc.user)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) organizationPromoters(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "id")
	b.mu.Lock()
	out := []models.User{}
	for _, acc := range b.accounts {
		if acc.user.Organization == name && acc.user.Ruolo == models.RolePromoter {
			out = append(out, acc.user)
		}
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

// ---- users ----

func (b *Backend) temporaryCredentials(w http.ResponseWriter, r *http.Request) {
	issuer, ok := b.requireRole(w, r, models.RoleCapoPromoter, models.RoleClublyFounder)
	if !ok {
		return
	}
	var req models.TemporaryCredentialsRequest
	if !decode(w, r, &req) {
		return
	}
	org := req.Organization
	if issuer.Ruolo == models.RoleCapoPromoter {
		if req.Ruolo != models.RolePromoter {
			writeDetail(w, http.StatusForbidden, "Puoi creare solo promoter")
			return
		}
		org = issuer.Organization
	}
	b.mu.Lock()
	for _, acc := range b.accounts {
		if strings.EqualFold(acc.user.Email, req.Email) {
			b.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "Email già registrata")
			return
		}
	}
	u := models.User{
		ID:                  b.nextID("U"),
		Nome:                req.Nome,
		Email:               req.Email,
		Username:            strings.Split(req.Email, "@")[0],
		Ruolo:               req.Ruolo,
		Organization:        org,
		NeedsSetup:          true,
		NeedsPasswordChange: true,
		CreatedAt:           time.Now().Format("2006-01-02"),
	}
	b.accounts[u.ID] = &account{user: u, password: req.Password}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, models.TemporaryCredentialsResult{UserID: u.ID, Organization: org, Message: "Credenziali create"})
}

func (b *Backend) searchUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireRole(w, r, models.RoleClublyFounder); !ok {
		return
	}
	var req models.UserSearchRequest
	if !decode(w, r, &req) {
		return
	}
	term := strings.ToLower(strings.TrimSpace(req.SearchTerm))
	b.mu.Lock()
	out := []models.User{}
	for _, acc := range b.accounts {
		u := acc.user
		if term != "" && !strings.Contains(strings.ToLower(u.Nome+" "+u.Cognome+" "+u.Username+" "+u.Email), term) {
			continue
		}
		if req.RoleFilter != "" && string(u.Ruolo) != req.RoleFilter {
			continue
		}
		if req.CreationDateFrom != "" && u.CreatedAt < req.CreationDateFrom {
			continue
		}
		if req.CreationDateTo != "" && u.CreatedAt > req.CreationDateTo {
			continue
		}
		out = append(out, u)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) userProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := b.User(chi.URLParam(r, "id"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Utente non trovato")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
