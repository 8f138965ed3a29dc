package models

import (
	"strings"
	"time"
)

type Event struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time,omitempty"`
	Location        string   `json:"location"`
	LocationAddress string   `json:"location_address,omitempty"`
	Organization    string   `json:"organization"`
	Lineup          []string `json:"lineup"`
	Guests          []string `json:"guests"`
	TotalTables     int      `json:"total_tables"`
	TablesAvailable int      `json:"tables_available"`
	MaxPartySize    int      `json:"max_party_size"`
	TableTypes      []string `json:"table_types,omitempty"`
	Image           string   `json:"image,omitempty"`
	EventPoster     string   `json:"event_poster,omitempty"`
}

// PartyLimit returns the largest party size accepted for the event.
func (e *Event) PartyLimit() int {
	if e.MaxPartySize <= 0 {
		return DefaultMaxPartySize
	}
	return e.MaxPartySize
}

func (e *Event) Poster() string {
	if e.EventPoster != "" {
		return e.EventPoster
	}
	return e.Image
}

// StartsAt combines date and start time. Zero time when either cannot be parsed.
func (e *Event) StartsAt(loc *time.Location) time.Time {
	return parseEventTime(e.Date, e.StartTime, loc)
}

// EndsAt returns the end of the event; an end time earlier than the start means the
// event runs past midnight. Without an end time the event lasts DefaultEventDuration.
func (e *Event) EndsAt(loc *time.Location) time.Time {
	start := e.StartsAt(loc)
	if start.IsZero() {
		return start
	}
	end := parseEventTime(e.Date, e.EndTime, loc)
	if end.IsZero() {
		return start.Add(DefaultEventDuration)
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

func parseEventTime(date, clock string, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// EventInput is the founder payload for event create and full edit.
type EventInput struct {
	Name            string   `json:"name"`
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time,omitempty"`
	Location        string   `json:"location"`
	LocationAddress string   `json:"location_address,omitempty"`
	Organization    string   `json:"organization"`
	Lineup          []string `json:"lineup"`
	Guests          []string `json:"guests"`
	TotalTables     int      `json:"total_tables"`
	TablesAvailable int      `json:"tables_available"`
	MaxPartySize    int      `json:"max_party_size"`
	TableTypes      []string `json:"table_types,omitempty"`
	EventPoster     string   `json:"event_poster,omitempty"`
}

// EventLimitedInput is the subset a capo promoter may change.
type EventLimitedInput struct {
	Name        string   `json:"name"`
	Lineup      []string `json:"lineup"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Guests      []string `json:"guests"`
	EventPoster string   `json:"event_poster,omitempty"`
}

type EventPosterRequest struct {
	EventPoster string `json:"event_poster"`
}

type EventCreated struct {
	Message string `json:"message"`
	EventID string `json:"event_id"`
}

// SplitList splits a comma or newline separated list typed by the user.
func SplitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
