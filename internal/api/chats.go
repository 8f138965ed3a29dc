package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"clubly/internal/models"
)

func (c *Client) ListChats(ctx context.Context, token string) ([]models.Chat, error) {
	var chats []models.Chat
	if err := c.do(ctx, request{method: http.MethodGet, route: "/api/user/chats", path: "/api/user/chats", token: token}, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// ChatMessages returns the full history of a chat.
func (c *Client) ChatMessages(ctx context.Context, token, chatID string) ([]models.Message, error) {
	path := fmt.Sprintf("/api/chats/%s/messages", url.PathEscape(chatID))
	var messages []models.Message
	if err := c.do(ctx, request{method: http.MethodGet, route: "/api/chats/{id}/messages", path: path, token: token}, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, token string, req models.SendMessageRequest) (string, error) {
	path := fmt.Sprintf("/api/chats/%s/messages", url.PathEscape(req.ChatID))
	var resp models.SendMessageResult
	if err := c.do(ctx, request{method: http.MethodPost, route: "/api/chats/{id}/messages", path: path, token: token, body: req}, &resp); err != nil {
		return "", err
	}
	return resp.MessageID, nil
}

func (c *Client) UnreadCount(ctx context.Context, token string) (int, error) {
	var resp models.NotificationCount
	if err := c.do(ctx, request{method: http.MethodGet, route: "/api/user/notifications/count", path: "/api/user/notifications/count", token: token}, &resp); err != nil {
		return 0, err
	}
	return resp.UnreadCount, nil
}
