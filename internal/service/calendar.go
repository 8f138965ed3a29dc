package service

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"clubly/internal/models"

	ics "github.com/arran4/golang-ical"
)

// CalendarService renders events as iCalendar documents.
type CalendarService struct {
	loc *time.Location
	now func() time.Time
}

func NewCalendarService(loc *time.Location) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarService{loc: loc, now: time.Now}
}

// EventICS builds a single-event calendar with a reminder two hours before start.
func (s *CalendarService) EventICS(event models.Event) ([]byte, error) {
	start := event.StartsAt(s.loc)
	if start.IsZero() {
		return nil, fmt.Errorf("event %s has no valid start time", event.ID)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Clubly//Clubly Bot//IT")
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")

	e := cal.AddEvent(fmt.Sprintf("%s@clubly", event.ID))
	now := s.now()
	e.SetDtStampTime(now)
	e.SetCreatedTime(now)
	e.SetModifiedAt(now)
	e.SetStartAt(start)
	e.SetEndAt(event.EndsAt(s.loc))
	e.SetSummary(event.Name)
	e.SetDescription(eventDescription(event))
	e.SetLocation(eventLocation(event))
	e.SetStatus(ics.ObjectStatusConfirmed)
	e.SetTimeTransparency(ics.TransparencyOpaque)
	e.SetClass(ics.ClassificationPublic)
	e.SetSequence(0)

	alarm := e.AddAlarm()
	alarm.SetAction(ics.ActionDisplay)
	alarm.AddProperty("TRIGGER;VALUE=DURATION", "-PT2H")
	alarm.SetDescription(fmt.Sprintf("Tra due ore: %s", event.Name))

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, fmt.Errorf("error serializing calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func eventLocation(e models.Event) string {
	if e.LocationAddress != "" {
		return e.Location + ", " + e.LocationAddress
	}
	return e.Location
}

func eventDescription(e models.Event) string {
	var parts []string
	if e.Organization != "" {
		parts = append(parts, "Organizzazione: "+e.Organization)
	}
	if len(e.Lineup) > 0 {
		parts = append(parts, "Lineup: "+strings.Join(e.Lineup, ", "))
	}
	if len(e.Guests) > 0 {
		parts = append(parts, "Ospiti: "+strings.Join(e.Guests, ", "))
	}
	return strings.Join(parts, "\n")
}
