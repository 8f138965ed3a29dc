package service

import (
	"strings"
	"testing"
	"time"

	"clubly/internal/models"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarService_EventICS(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	svc := NewCalendarService(loc)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	event := models.Event{
		ID:              "E123",
		Name:            "Sabato Notte",
		Date:            "2024-06-01",
		StartTime:       "23:00",
		EndTime:         "04:00",
		Location:        "Nautilus",
		LocationAddress: "Via Roma 1",
		Organization:    "Nautilus Group",
		Lineup:          []string{"DJ Uno", "DJ Due"},
	}

	raw, err := svc.EventICS(event)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "BEGIN:VCALENDAR")
	assert.Contains(t, text, "UID:E123@clubly")
	assert.Contains(t, text, "SUMMARY:Sabato Notte")
	assert.Contains(t, text, "-PT2H")

	cal, err := ics.ParseCalendar(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)

	ev := cal.Events()[0]
	start, err := ev.GetStartAt()
	require.NoError(t, err)
	end, err := ev.GetEndAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2024, 6, 1, 23, 0, 0, 0, loc)))
	assert.True(t, end.Equal(time.Date(2024, 6, 2, 4, 0, 0, 0, loc)), "end before start rolls over midnight")
	assert.Contains(t, ev.GetProperty(ics.ComponentPropertyLocation).Value, "Via Roma 1")
}

func TestCalendarService_InvalidStart(t *testing.T) {
	svc := NewCalendarService(time.UTC)
	_, err := svc.EventICS(models.Event{ID: "E1", Name: "x", Date: "domani"})
	assert.Error(t, err)
}
