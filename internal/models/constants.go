package models

import "time"

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

// Steps of the multi-step forms
const (
	StepLoginIdentifier   = "login_identifier"
	StepLoginPassword     = "login_password"
	StepRegisterField     = "register_field"
	StepSetupField        = "setup_field"
	StepPasswordCurrent   = "password_current"
	StepPasswordNew       = "password_new"
	StepProfileField      = "profile_field"
	StepEventField        = "event_field"
	StepOrganizationField = "organization_field"
	StepCredentialsField  = "credentials_field"
	StepSearchField       = "search_field"
	StepPosterURL         = "poster_url"

	// StepFormSubmit: all fields are collected, the form waits for a submit or retry
	StepFormSubmit = "form_submit"
)

const (
	// DefaultMaxPartySize applies when an event has no max_party_size
	DefaultMaxPartySize = 10

	// DefaultEventDuration is the calendar length of an event without end_time
	DefaultEventDuration = 6 * time.Hour

	// DefaultRedisTTL is the lifetime of form state in Redis
	DefaultRedisTTL = 24 * time.Hour

	DefaultPaginationSize = 5

	RateLimitMessages = 20
	RateLimitWindow   = 60 // seconds

	// MessagePreviewLength is the preview length of the last message in the chat list
	MessagePreviewLength = 40

	// HistoryLimit is how many recent messages a chat shows
	HistoryLimit = 15
)
