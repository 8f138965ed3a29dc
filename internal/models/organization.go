package models

type Organization struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	CapoPromoter *User    `json:"capo_promoter,omitempty"`
	Members      []User   `json:"members,omitempty"`
	Events       []Event  `json:"events,omitempty"`
	MemberIDs    []string `json:"member_ids,omitempty"`
}

type OrganizationInput struct {
	Name                 string `json:"name"`
	Location             string `json:"location"`
	CapoPromoterUsername string `json:"capo_promoter_username,omitempty"`
}

type OrganizationCreated struct {
	Message        string `json:"message"`
	OrganizationID string `json:"organization_id"`
}

type AssignCapoPromoterRequest struct {
	CapoPromoterID string `json:"capo_promoter_id"`
}
