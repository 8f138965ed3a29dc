package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const (
	EventLoggedIn          = "session_logged_in"
	EventLoggedOut         = "session_logged_out"
	EventBookingConfirmed  = "booking_confirmed"
	EventBookingFailed     = "booking_failed"
	EventMessageSent       = "message_sent"
	EventDashboardMutation = "dashboard_mutation"
)

// SessionPayload describes who logged in or out.
type SessionPayload struct {
	TelegramID int64  `json:"telegram_id"`
	UserID     string `json:"user_id,omitempty"`
	Role       string `json:"role,omitempty"`
}

// BookingPayload describes a booking outcome for event consumers.
type BookingPayload struct {
	TelegramID   int64     `json:"telegram_id"`
	UserID       string    `json:"user_id"`
	EventID      string    `json:"event_id"`
	EventName    string    `json:"event_name"`
	BookingType  string    `json:"booking_type"`
	PartySize    int       `json:"party_size"`
	BookingID    string    `json:"booking_id,omitempty"`
	ChatID       string    `json:"chat_id,omitempty"`
	PromoterName string    `json:"promoter_name,omitempty"`
	Error        string    `json:"error,omitempty"`
	At           time.Time `json:"at"`
}

// MessagePayload describes a sent chat message.
type MessagePayload struct {
	TelegramID int64  `json:"telegram_id"`
	ChatID     string `json:"chat_id"`
	SenderID   string `json:"sender_id"`
	SenderRole string `json:"sender_role"`
	Length     int    `json:"length"`
}

// MutationPayload describes an admin action that changed dashboard data.
type MutationPayload struct {
	TelegramID int64  `json:"telegram_id"`
	Action     string `json:"action"`
	TargetID   string `json:"target_id,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs subscribers synchronously and joins their errors.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
}
