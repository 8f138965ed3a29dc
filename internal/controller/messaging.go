package controller

import (
	"context"
	"strings"

	"clubly/internal/events"
	"clubly/internal/metrics"
	"clubly/internal/models"
)

// ChatView is a snapshot of the messaging state.
type ChatView struct {
	Chats      []models.Chat
	SelectedID string
	Messages   []models.Message
	Loading    bool
	Draft      string
	Sending    bool
	Unread     int
}

// Selected returns the selected chat from the list, if any.
func (v ChatView) Selected() (models.Chat, bool) {
	for _, c := range v.Chats {
		if c.ID == v.SelectedID {
			return c, true
		}
	}
	return models.Chat{}, false
}

func (a *App) Chats() ChatView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ChatView{
		Chats:      append([]models.Chat(nil), a.chats...),
		SelectedID: a.selectedChat,
		Messages:   append([]models.Message(nil), a.messages...),
		Loading:    a.loadingMessages,
		Draft:      a.draft,
		Sending:    a.sending,
		Unread:     a.unread,
	}
}

// LoadChats fetches the chat list of the current user in backend order.
func (a *App) LoadChats(ctx context.Context) error {
	token, epoch, err := a.requireToken()
	if err != nil {
		return err
	}
	list, err := a.backend.ListChats(ctx, token)
	if err != nil {
		a.handleAuthError(ctx, err)
		return fail(err, ActionFailedText)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.epoch != epoch {
		return ErrNotAuthenticated
	}
	a.chats = list
	return nil
}

// SelectChat switches to chatID and loads its full history. The buffer is
// cleared before the request; a response for a selection that has since
// been replaced is dropped.
func (a *App) SelectChat(ctx context.Context, chatID string) error {
	a.mu.Lock()
	if a.token == "" || a.user == nil {
		a.mu.Unlock()
		return ErrNotAuthenticated
	}
	if a.selectedChat != chatID {
		a.draft = ""
	}
	a.chatGen++
	gen := a.chatGen
	token := a.token
	a.selectedChat = chatID
	a.messages = nil
	a.loadingMessages = true
	if !a.overlay.IsGate() {
		a.overlay = ChatOverlay()
	}
	a.mu.Unlock()

	return a.fetchMessages(ctx, token, chatID, gen)
}

func (a *App) fetchMessages(ctx context.Context, token, chatID string, gen uint64) error {
	msgs, err := a.backend.ChatMessages(ctx, token, chatID)

	a.mu.Lock()
	if gen != a.chatGen {
		a.mu.Unlock()
		a.log(ctx).Debug().Str("chat_id", chatID).Msg("dropping stale chat history")
		return nil
	}
	a.loadingMessages = false
	if err != nil {
		a.mu.Unlock()
		a.handleAuthError(ctx, err)
		return fail(err, ActionFailedText)
	}
	a.messages = msgs
	a.mu.Unlock()
	return nil
}

// ReloadMessages refetches the history of the selected chat.
func (a *App) ReloadMessages(ctx context.Context) error {
	a.mu.Lock()
	if a.token == "" {
		a.mu.Unlock()
		return ErrNotAuthenticated
	}
	if a.selectedChat == "" {
		a.mu.Unlock()
		return ErrNoChatSelected
	}
	a.chatGen++
	gen, token, chatID := a.chatGen, a.token, a.selectedChat
	a.loadingMessages = true
	a.mu.Unlock()
	return a.fetchMessages(ctx, token, chatID, gen)
}

func (a *App) Draft() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft
}

func (a *App) SetDraft(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = text
}

// SendMessage posts text to the selected chat. Blank text is rejected
// without a request. On success the draft is cleared and the history
// refetched; on failure the draft keeps the text.
func (a *App) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	a.mu.Lock()
	if a.token == "" || a.user == nil {
		a.mu.Unlock()
		return ErrNotAuthenticated
	}
	if a.selectedChat == "" {
		a.mu.Unlock()
		return ErrNoChatSelected
	}
	if a.sending {
		a.mu.Unlock()
		return ErrSendInProgress
	}
	a.sending = true
	a.draft = text
	token, epoch, chatID := a.token, a.epoch, a.selectedChat
	req := models.SendMessageRequest{
		ChatID:     chatID,
		SenderID:   a.user.ID,
		SenderRole: a.user.Ruolo,
		Message:    strings.TrimSpace(text),
	}
	a.mu.Unlock()

	_, err := a.backend.SendMessage(ctx, token, req)

	a.mu.Lock()
	if a.epoch != epoch {
		a.mu.Unlock()
		return ErrNotAuthenticated
	}
	a.sending = false
	if err != nil {
		a.mu.Unlock()
		metrics.IncMessageSent("failed")
		a.log(ctx).Warn().Err(err).Str("chat_id", chatID).Msg("failed to send message")
		a.handleAuthError(ctx, err)
		return fail(err, SendFailedText)
	}
	if a.draft == text {
		a.draft = ""
	}
	var gen uint64
	refetch := a.selectedChat == chatID
	if refetch {
		a.chatGen++
		gen = a.chatGen
		a.loadingMessages = true
	}
	a.mu.Unlock()

	metrics.IncMessageSent("sent")
	a.publish(events.EventMessageSent, events.MessagePayload{
		TelegramID: a.telegramID,
		ChatID:     chatID,
		SenderID:   req.SenderID,
		SenderRole: string(req.SenderRole),
		Length:     len(req.Message),
	})

	if !refetch {
		return nil
	}
	if err := a.fetchMessages(ctx, token, chatID, gen); err != nil {
		a.log(ctx).Error().Err(err).Str("chat_id", chatID).Msg("failed to refetch messages after send")
	}
	return nil
}

// RefreshUnread fetches the unread notification counter. The counter is
// never adjusted locally.
func (a *App) RefreshUnread(ctx context.Context) (int, error) {
	token, epoch, err := a.requireToken()
	if err != nil {
		return 0, err
	}
	n, err := a.backend.UnreadCount(ctx, token)
	if err != nil {
		a.handleAuthError(ctx, err)
		return 0, fail(err, ActionFailedText)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.epoch == epoch {
		a.unread = n
	}
	return n, nil
}
