package controller

import (
	"context"
	"errors"
	"time"

	"clubly/internal/events"
	"clubly/internal/metrics"
	"clubly/internal/models"
)

type BookingState int

const (
	BookingIdle BookingState = iota
	BookingEventSelected
	BookingAuthRequired
	BookingFormOpen
	BookingSubmitting
	BookingConfirmed
	BookingFailed
)

func (s BookingState) String() string {
	switch s {
	case BookingEventSelected:
		return "event_selected"
	case BookingAuthRequired:
		return "auth_required"
	case BookingFormOpen:
		return "form_open"
	case BookingSubmitting:
		return "submitting"
	case BookingConfirmed:
		return "confirmed"
	case BookingFailed:
		return "failed"
	}
	return "idle"
}

// BookingFlow is a snapshot of the booking state machine.
type BookingFlow struct {
	State     BookingState
	Event     *models.Event
	Type      models.BookingType
	PartySize int
	Result    *models.BookingResult
	Chat      *models.Chat
	Err       error
}

func (a *App) Booking() BookingFlow {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.booking
}

// SelectEvent starts a booking for e. Anonymous users and users with a
// pending profile gate are parked in BookingAuthRequired; the form opens
// once the session is complete.
func (a *App) SelectEvent(e models.Event) BookingState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.booking.State == BookingSubmitting {
		return a.booking.State
	}

	a.booking = BookingFlow{State: BookingEventSelected, Event: &e, PartySize: 1}
	switch {
	case a.user == nil:
		a.booking.State = BookingAuthRequired
		a.overlay = AuthOverlay(AuthLogin)
	case gateFor(a.user) != GateNone:
		a.booking.State = BookingAuthRequired
	default:
		a.openBookingFormLocked()
	}
	return a.booking.State
}

func (a *App) openBookingFormLocked() {
	a.booking.State = BookingFormOpen
	a.booking.Err = nil
	a.booking.Result = nil
	a.booking.Chat = nil
	if a.booking.PartySize < 1 {
		a.booking.PartySize = 1
	}
	a.overlay = BookingOverlay(*a.booking.Event)
}

func (a *App) editableLocked() error {
	switch a.booking.State {
	case BookingFormOpen, BookingFailed:
		return nil
	case BookingSubmitting:
		return ErrBookingInProgress
	}
	return ErrBookingNotOpen
}

func (a *App) SetBookingType(t models.BookingType) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.editableLocked(); err != nil {
		return err
	}
	if !t.Valid() {
		return ErrInvalidBookingType
	}
	a.booking.Type = t
	if a.booking.State == BookingFailed {
		a.openBookingFormLocked()
	}
	return nil
}

func (a *App) SetPartySize(n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.editableLocked(); err != nil {
		return err
	}
	if n < 1 || n > a.booking.Event.PartyLimit() {
		return ErrInvalidPartySize
	}
	a.booking.PartySize = n
	if a.booking.State == BookingFailed {
		a.openBookingFormLocked()
	}
	return nil
}

// Submit sends the booking. The backend assigns the promoter and opens the
// chat; on success the catalog and chat list are refetched and the new chat
// is selected.
func (a *App) Submit(ctx context.Context) (BookingFlow, error) {
	a.mu.Lock()
	if a.user == nil || a.token == "" {
		a.mu.Unlock()
		return BookingFlow{}, ErrNotAuthenticated
	}
	if err := a.editableLocked(); err != nil {
		flow := a.booking
		a.mu.Unlock()
		return flow, err
	}
	flow := a.booking
	if !flow.Type.Valid() {
		a.mu.Unlock()
		return flow, ErrInvalidBookingType
	}
	if flow.PartySize < 1 || flow.PartySize > flow.Event.PartyLimit() {
		a.mu.Unlock()
		return flow, ErrInvalidPartySize
	}
	a.booking.State = BookingSubmitting
	token, epoch, user := a.token, a.epoch, *a.user
	a.mu.Unlock()

	req := models.BookingRequest{EventID: flow.Event.ID, BookingType: flow.Type, PartySize: flow.PartySize}
	payload := events.BookingPayload{
		TelegramID:  a.telegramID,
		UserID:      user.ID,
		EventID:     flow.Event.ID,
		EventName:   flow.Event.Name,
		BookingType: string(flow.Type),
		PartySize:   flow.PartySize,
		At:          a.now(),
	}

	start := time.Now()
	res, err := a.backend.CreateBooking(ctx, token, req)
	if err != nil {
		failure := fail(err, BookingFailedText)
		metrics.IncBooking(string(flow.Type), "failed")
		payload.Error = failure.Error()
		a.publish(events.EventBookingFailed, payload)
		a.log(ctx).Warn().Err(err).Str("event_id", req.EventID).Msg("booking failed")

		a.mu.Lock()
		if a.epoch == epoch {
			a.booking.State = BookingFailed
			a.booking.Err = failure
		}
		flow = a.booking
		a.mu.Unlock()
		a.handleAuthError(ctx, err)
		return flow, failure
	}
	metrics.IncBooking(string(flow.Type), "confirmed")
	a.log(ctx).Info().
		Str("event_id", req.EventID).
		Str("booking_id", res.BookingID).
		Str("promoter", res.PromoterName).
		Dur("took", time.Since(start)).
		Msg("booking confirmed")

	// table availability changed
	_ = a.catalog.Refresh(ctx)
	if err := a.LoadChats(ctx); err != nil {
		a.log(ctx).Error().Err(err).Msg("failed to refetch chats after booking")
	}

	chat := a.chatForBooking(res.ChatID, req.EventID)

	a.mu.Lock()
	if a.epoch != epoch {
		a.mu.Unlock()
		return BookingFlow{}, ErrNotAuthenticated
	}
	a.booking.State = BookingConfirmed
	a.booking.Result = res
	a.booking.Chat = chat
	if e, ok := a.catalog.Event(req.EventID); ok {
		a.booking.Event = &e
	}
	a.overlay = ChatOverlay()
	flow = a.booking
	a.mu.Unlock()

	if chat != nil {
		if err := a.SelectChat(ctx, chat.ID); err != nil && !errors.Is(err, ErrNotAuthenticated) {
			a.log(ctx).Error().Err(err).Str("chat_id", chat.ID).Msg("failed to load booking chat")
		}
	}

	payload.BookingID = res.BookingID
	payload.ChatID = res.ChatID
	payload.PromoterName = res.PromoterName
	a.publish(events.EventBookingConfirmed, payload)
	return flow, nil
}

// chatForBooking finds the chat opened by a booking: by id when the backend
// returned one, otherwise the chat of the booked event.
func (a *App) chatForBooking(chatID, eventID string) *models.Chat {
	a.mu.Lock()
	defer a.mu.Unlock()
	if chatID != "" {
		for i := range a.chats {
			if a.chats[i].ID == chatID {
				c := a.chats[i]
				return &c
			}
		}
	}
	for i := len(a.chats) - 1; i >= 0; i-- {
		if a.chats[i].ForEvent(eventID) {
			c := a.chats[i]
			return &c
		}
	}
	return nil
}

// UserBookings lists the bookings of the current user.
func (a *App) UserBookings(ctx context.Context) ([]models.Booking, error) {
	token, _, err := a.requireToken()
	if err != nil {
		return nil, err
	}
	list, err := a.backend.UserBookings(ctx, token)
	if err != nil {
		a.handleAuthError(ctx, err)
		return nil, fail(err, ActionFailedText)
	}
	return list, nil
}
