package bot

import (
	"fmt"
	"strings"

	"clubly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type PaginationParams struct {
	ChatID       int64
	MessageID    int // 0 if new message
	Page         int
	Title        string
	PagePrefix   string
	BackCallback string
	BackText     string
}

// renderPaginatedList renders one page of a list with navigation buttons
func (b *Bot) renderPaginatedList(params PaginationParams, totalCount int, itemsPerPage int, renderer func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton)) {
	if itemsPerPage <= 0 {
		itemsPerPage = b.config.Bot.PaginationSize
	}
	if itemsPerPage <= 0 {
		itemsPerPage = models.DefaultPaginationSize
	}
	if params.Page < 0 {
		params.Page = 0
	}

	totalPages := (totalCount + itemsPerPage - 1) / itemsPerPage
	if params.Page >= totalPages && totalPages > 0 {
		params.Page = totalPages - 1
	}

	startIdx := params.Page * itemsPerPage
	endIdx := startIdx + itemsPerPage
	if endIdx > totalCount {
		endIdx = totalCount
	}

	content, keyboard := renderer(startIdx, endIdx)

	var message strings.Builder
	message.WriteString(fmt.Sprintf("%s\n\n", params.Title))
	if totalPages > 1 {
		message.WriteString(fmt.Sprintf("Pagina %d di %d\n\n", params.Page+1, totalPages))
	}
	message.WriteString(content)

	// navigation buttons
	var navButtons []tgbotapi.InlineKeyboardButton
	if params.Page > 0 {
		navButtons = append(navButtons, button("⬅️ Indietro", fmt.Sprintf("%s%d", params.PagePrefix, params.Page-1)))
	}
	if endIdx < totalCount {
		navButtons = append(navButtons, button("Avanti ➡️", fmt.Sprintf("%s%d", params.PagePrefix, params.Page+1)))
	}
	if len(navButtons) > 0 {
		keyboard = append(keyboard, navButtons)
	}

	if params.BackCallback != "" {
		text := params.BackText
		if text == "" {
			text = "⬅️ Menu"
		}
		keyboard = append(keyboard, row(button(text, params.BackCallback)))
	}

	var kb *tgbotapi.InlineKeyboardMarkup
	if len(keyboard) > 0 {
		kb = markup(keyboard...)
	}
	b.render(params.ChatID, params.MessageID, message.String(), kb)
}
