package models

type ChatEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date,omitempty"`
}

type Participant struct {
	ID       string `json:"id"`
	Nome     string `json:"nome,omitempty"`
	Cognome  string `json:"cognome,omitempty"`
	Username string `json:"username"`
	Ruolo    Role   `json:"ruolo,omitempty"`
}

func (p *Participant) Label() string {
	if p.Nome != "" {
		return p.Nome
	}
	return p.Username
}

type Chat struct {
	ID               string       `json:"id"`
	EventID          string       `json:"event_id,omitempty"`
	ClientID         string       `json:"client_id,omitempty"`
	PromoterID       string       `json:"promoter_id,omitempty"`
	Event            *ChatEvent   `json:"event,omitempty"`
	OtherParticipant *Participant `json:"other_participant,omitempty"`
	LastMessage      *Message     `json:"last_message,omitempty"`
	CreatedAt        string       `json:"created_at,omitempty"`
}

// ForEvent reports whether the chat belongs to the given event.
func (c *Chat) ForEvent(eventID string) bool {
	if c.EventID == eventID {
		return eventID != ""
	}
	return c.Event != nil && c.Event.ID == eventID
}

func (c *Chat) Title() string {
	name := "Chat"
	if c.Event != nil && c.Event.Name != "" {
		name = c.Event.Name
	}
	if c.OtherParticipant != nil {
		name += " · " + c.OtherParticipant.Label()
	}
	return name
}

type Message struct {
	ID         string `json:"id"`
	ChatID     string `json:"chat_id"`
	SenderID   string `json:"sender_id"`
	SenderRole Role   `json:"sender_role"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

type SendMessageRequest struct {
	ChatID     string `json:"chat_id"`
	SenderID   string `json:"sender_id"`
	SenderRole Role   `json:"sender_role"`
	Message    string `json:"message"`
}

type SendMessageResult struct {
	MessageID string `json:"message_id"`
}

type NotificationCount struct {
	UnreadCount int `json:"unread_count"`
}
