package controller

import "clubly/internal/models"

type OverlayKind int

const (
	OverlayNone OverlayKind = iota
	OverlayAuth
	OverlaySetup
	OverlayPasswordChange
	OverlayBooking
	OverlayChat
	OverlayEventDetails
	OverlayEditEvent
	OverlayCreateEvent
	OverlayCreateOrganization
	OverlayEditOrganization
	OverlayIssueCredentials
	OverlayUserSearch
	OverlayProfileEdit
)

var overlayNames = map[OverlayKind]string{
	OverlayNone:               "none",
	OverlayAuth:               "auth",
	OverlaySetup:              "setup",
	OverlayPasswordChange:     "password_change",
	OverlayBooking:            "booking",
	OverlayChat:               "chat",
	OverlayEventDetails:       "event_details",
	OverlayEditEvent:          "edit_event",
	OverlayCreateEvent:        "create_event",
	OverlayCreateOrganization: "create_organization",
	OverlayEditOrganization:   "edit_organization",
	OverlayIssueCredentials:   "issue_credentials",
	OverlayUserSearch:         "user_search",
	OverlayProfileEdit:        "profile_edit",
}

func (k OverlayKind) String() string {
	if name, ok := overlayNames[k]; ok {
		return name
	}
	return "unknown"
}

type AuthMode string

const (
	AuthLogin    AuthMode = "login"
	AuthRegister AuthMode = "register"
)

// Overlay is the single modal currently shown. Only the payload that belongs
// to Kind is set; values are built with the constructors below.
type Overlay struct {
	Kind         OverlayKind
	AuthMode     AuthMode
	Event        *models.Event
	Organization *models.Organization
}

func NoOverlay() Overlay { return Overlay{} }

func AuthOverlay(mode AuthMode) Overlay {
	if mode != AuthRegister {
		mode = AuthLogin
	}
	return Overlay{Kind: OverlayAuth, AuthMode: mode}
}

func SetupOverlay() Overlay { return Overlay{Kind: OverlaySetup} }

func PasswordChangeOverlay() Overlay { return Overlay{Kind: OverlayPasswordChange} }

func BookingOverlay(e models.Event) Overlay { return Overlay{Kind: OverlayBooking, Event: &e} }

func ChatOverlay() Overlay { return Overlay{Kind: OverlayChat} }

func EventDetailsOverlay(e models.Event) Overlay { return Overlay{Kind: OverlayEventDetails, Event: &e} }

func EditEventOverlay(e models.Event) Overlay { return Overlay{Kind: OverlayEditEvent, Event: &e} }

func CreateEventOverlay() Overlay { return Overlay{Kind: OverlayCreateEvent} }

func CreateOrganizationOverlay() Overlay { return Overlay{Kind: OverlayCreateOrganization} }

func EditOrganizationOverlay(o models.Organization) Overlay {
	return Overlay{Kind: OverlayEditOrganization, Organization: &o}
}

func IssueCredentialsOverlay() Overlay { return Overlay{Kind: OverlayIssueCredentials} }

func UserSearchOverlay() Overlay { return Overlay{Kind: OverlayUserSearch} }

func ProfileEditOverlay() Overlay { return Overlay{Kind: OverlayProfileEdit} }

// IsGate reports whether the overlay blocks every other interaction.
func (o Overlay) IsGate() bool {
	return o.Kind == OverlaySetup || o.Kind == OverlayPasswordChange
}
