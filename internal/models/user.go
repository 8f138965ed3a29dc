package models

import "strings"

type Role string

const (
	RoleCliente       Role = "cliente"
	RolePromoter      Role = "promoter"
	RoleCapoPromoter  Role = "capo_promoter"
	RoleClublyFounder Role = "clubly_founder"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCliente, RolePromoter, RoleCapoPromoter, RoleClublyFounder:
		return true
	}
	return false
}

// Label returns the Italian display name of the role
func (r Role) Label() string {
	switch r {
	case RolePromoter:
		return "Promoter"
	case RoleCapoPromoter:
		return "Capo Promoter"
	case RoleClublyFounder:
		return "Clubly Founder"
	default:
		return "Cliente"
	}
}

type User struct {
	ID                  string `json:"id"`
	Nome                string `json:"nome"`
	Cognome             string `json:"cognome"`
	Email               string `json:"email"`
	Username            string `json:"username"`
	Ruolo               Role   `json:"ruolo"`
	Citta               string `json:"citta,omitempty"`
	Biografia           string `json:"biografia,omitempty"`
	DataNascita         string `json:"data_nascita,omitempty"`
	ProfileImage        string `json:"profile_image,omitempty"`
	NeedsSetup          bool   `json:"needs_setup,omitempty"`
	NeedsPasswordChange bool   `json:"needs_password_change,omitempty"`
	Organization        string `json:"organization,omitempty"`
	CreatedAt           string `json:"created_at,omitempty"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.Nome + " " + u.Cognome)
}

func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FullName()
}

// DashboardViews lists the role-scoped views a user may open, highest privilege last.
func (u *User) DashboardViews() []DashboardView {
	switch u.Ruolo {
	case RolePromoter:
		return []DashboardView{ViewPromoter}
	case RoleCapoPromoter:
		return []DashboardView{ViewPromoter, ViewCapoPromoter}
	case RoleClublyFounder:
		return []DashboardView{ViewPromoter, ViewCapoPromoter, ViewClublyFounder}
	}
	return nil
}

func (u *User) CanOpen(view DashboardView) bool {
	if view == ViewMain {
		return true
	}
	for _, v := range u.DashboardViews() {
		if v == view {
			return true
		}
	}
	return false
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Nome        string `json:"nome"`
	Cognome     string `json:"cognome"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DataNascita string `json:"data_nascita"`
	Citta       string `json:"citta"`
	Ruolo       Role   `json:"ruolo"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type SetupRequest struct {
	Cognome      string `json:"cognome"`
	Username     string `json:"username"`
	DataNascita  string `json:"data_nascita"`
	Citta        string `json:"citta"`
	ProfileImage string `json:"profile_image,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ProfileEditRequest struct {
	Nome      string `json:"nome"`
	Username  string `json:"username"`
	Biografia string `json:"biografia"`
	Citta     string `json:"citta"`
}

// UserEnvelope is the {"user": ...} wrapper returned by profile mutations.
type UserEnvelope struct {
	User User `json:"user"`
}

type TemporaryCredentialsRequest struct {
	Nome         string `json:"nome"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Ruolo        Role   `json:"ruolo"`
	Organization string `json:"organization"`
}

type TemporaryCredentialsResult struct {
	UserID       string `json:"user_id"`
	Organization string `json:"organization"`
	Message      string `json:"message,omitempty"`
}

type UserSearchRequest struct {
	SearchTerm       string `json:"search_term"`
	RoleFilter       string `json:"role_filter"`
	CreationDateFrom string `json:"creation_date_from"`
	CreationDateTo   string `json:"creation_date_to"`
}
