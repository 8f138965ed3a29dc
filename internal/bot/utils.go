package bot

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"clubly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	if _, err := b.tgService.SendMarkdown(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendError(chatID int64, err error) {
	b.sendMessage(chatID, b.getErrorMessage(err))
}

// render edits messageID in place when it is set and sends a new message
// otherwise or when the edit fails.
func (b *Bot) render(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if messageID != 0 {
		if _, err := b.tgService.EditMessage(chatID, messageID, text, keyboard); err == nil {
			return
		}
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

// formatDate renders an ISO date as DD/MM/YYYY, leaving anything else untouched.
func formatDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

func eventWhen(e models.Event) string {
	when := formatDate(e.Date)
	if e.StartTime != "" {
		when += " " + e.StartTime
		if e.EndTime != "" {
			when += "–" + e.EndTime
		}
	}
	return when
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return buttons
}

func markup(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// Form field parsers return the normalized value or an error shown to the user

var errRequired = errors.New("questo campo è obbligatorio")

func parseText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errRequired
	}
	return s, nil
}

func parseEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	at := strings.LastIndex(s, "@")
	if at < 1 || !strings.Contains(s[at:], ".") || strings.ContainsAny(s, " \t") {
		return "", errors.New("indirizzo email non valido")
	}
	return s, nil
}

func parseUsername(s string) (string, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	if n := utf8.RuneCountInString(s); n < 3 || n > 30 {
		return "", errors.New("lo username deve avere tra 3 e 30 caratteri")
	}
	if strings.ContainsAny(s, " \t\n") {
		return "", errors.New("lo username non può contenere spazi")
	}
	return s, nil
}

func parsePassword(s string) (string, error) {
	if utf8.RuneCountInString(s) < 6 {
		return "", errors.New("la password deve avere almeno 6 caratteri")
	}
	return s, nil
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02.01.2006", "2/1/2006"}

func parseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", errors.New("data non valida, usa il formato GG/MM/AAAA")
}

func parseClock(s string) (string, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", ":")
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", errors.New("orario non valido, usa il formato HH:MM")
	}
	return t.Format("15:04"), nil
}

func parseCount(s string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return "", errors.New("inserisci un numero intero positivo")
	}
	return strconv.Itoa(n), nil
}

func parsePartyLimit(s string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 50 {
		return "", errors.New("inserisci un numero tra 1 e 50")
	}
	return strconv.Itoa(n), nil
}

func parseURL(s string) (string, error) {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.New("link non valido, deve iniziare con http:// o https://")
	}
	return s, nil
}

func parseRole(s string) (string, error) {
	r := models.Role(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")))
	if !r.Valid() {
		return "", fmt.Errorf("ruolo non valido, scegli tra %s, %s, %s, %s",
			models.RoleCliente, models.RolePromoter, models.RoleCapoPromoter, models.RoleClublyFounder)
	}
	return string(r), nil
}

// parseList normalizes a comma separated list, e.g. a lineup.
func parseList(s string) (string, error) {
	items := models.SplitList(s)
	if len(items) == 0 {
		return "", errRequired
	}
	return strings.Join(items, ", "), nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
