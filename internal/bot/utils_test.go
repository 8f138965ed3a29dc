package bot

import (
	"testing"

	"clubly/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParseEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{" Giulia@Clubly.IT ", "giulia@clubly.it", false},
		{"a@b.co", "a@b.co", false},
		{"@clubly.it", "", true},
		{"giulia@clubly", "", true},
		{"giu lia@clubly.it", "", true},
	}

	for _, tt := range tests {
		got, err := parseEmail(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		assert.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got)
	}
}

func TestParseUsername(t *testing.T) {
	got, err := parseUsername("@giulia")
	assert.NoError(t, err)
	assert.Equal(t, "giulia", got)

	_, err = parseUsername("ab")
	assert.Error(t, err)
	_, err = parseUsername("giulia bianchi")
	assert.Error(t, err)
}

func TestParsePassword(t *testing.T) {
	_, err := parsePassword("12345")
	assert.Error(t, err)

	got, err := parsePassword(" segreta ")
	assert.NoError(t, err)
	assert.Equal(t, " segreta ", got, "passwords are kept as typed")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"01/06/2024", "2024-06-01"},
		{"1/6/2024", "2024-06-01"},
		{"01.06.2024", "2024-06-01"},
		{"2024-06-01", "2024-06-01"},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.input)
		assert.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got)
	}

	_, err := parseDate("31/02/2024")
	assert.Error(t, err)
	_, err = parseDate("domani")
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	got, err := parseClock("23.30")
	assert.NoError(t, err)
	assert.Equal(t, "23:30", got)

	_, err = parseClock("25:00")
	assert.Error(t, err)
}

func TestParseNumbers(t *testing.T) {
	got, err := parseCount("0")
	assert.NoError(t, err)
	assert.Equal(t, "0", got)
	_, err = parseCount("-3")
	assert.Error(t, err)

	got, err = parsePartyLimit(" 12 ")
	assert.NoError(t, err)
	assert.Equal(t, "12", got)
	_, err = parsePartyLimit("0")
	assert.Error(t, err)
	_, err = parsePartyLimit("51")
	assert.Error(t, err)
}

func TestParseURL(t *testing.T) {
	got, err := parseURL("https://cdn.clubly.it/poster.jpg")
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.clubly.it/poster.jpg", got)

	_, err = parseURL("ftp://cdn.clubly.it/poster.jpg")
	assert.Error(t, err)
	_, err = parseURL("poster.jpg")
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	got, err := parseRole("Capo Promoter")
	assert.NoError(t, err)
	assert.Equal(t, string(models.RoleCapoPromoter), got)

	_, err = parseRole("dj")
	assert.Error(t, err)
}

func TestParseList(t *testing.T) {
	got, err := parseList(" DJ Uno ,, DJ Due ")
	assert.NoError(t, err)
	assert.Equal(t, "DJ Uno, DJ Due", got)

	_, err = parseList(" , ")
	assert.ErrorIs(t, err, errRequired)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Ciao", truncate("Ciao", 10))
	assert.Equal(t, "Città…", truncate("Città di Milano", 5))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "01/06/2024", formatDate("2024-06-01"))
	assert.Equal(t, "sabato", formatDate("sabato"))
}

func TestEventWhen(t *testing.T) {
	e := models.Event{Date: "2024-06-01", StartTime: "23:00", EndTime: "05:00"}
	assert.Equal(t, "01/06/2024 23:00–05:00", eventWhen(e))

	e.StartTime = ""
	assert.Equal(t, "01/06/2024", eventWhen(e))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Èvviva", capitalize("èvviva"))
	assert.Equal(t, "", capitalize(""))
}

func TestGetErrorMessage(t *testing.T) {
	b := &Bot{}
	assert.Equal(t, "", b.getErrorMessage(nil))
	assert.Contains(t, b.getErrorMessage(errPasswordMismatch), "Le password non coincidono")
}
