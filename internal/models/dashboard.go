package models

type DashboardView string

const (
	ViewMain          DashboardView = "main"
	ViewPromoter      DashboardView = "promoter"
	ViewCapoPromoter  DashboardView = "capo-promoter"
	ViewClublyFounder DashboardView = "clubly-founder"
)

func (v DashboardView) Valid() bool {
	switch v {
	case ViewMain, ViewPromoter, ViewCapoPromoter, ViewClublyFounder:
		return true
	}
	return false
}

// Dashboard is the aggregate payload of GET /api/dashboard/{view}. Fields absent
// for a view stay empty.
type Dashboard struct {
	Events        []Event        `json:"events,omitempty"`
	Members       []User         `json:"members,omitempty"`
	Chats         []Chat         `json:"chats,omitempty"`
	Organizations []Organization `json:"organizations,omitempty"`
	Users         []User         `json:"users,omitempty"`
	Stats         map[string]int `json:"stats,omitempty"`
	Organization  *Organization  `json:"organization,omitempty"`
}
