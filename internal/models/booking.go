package models

type BookingType string

const (
	BookingLista  BookingType = "lista"
	BookingTavolo BookingType = "tavolo"
)

func (t BookingType) Valid() bool {
	return t == BookingLista || t == BookingTavolo
}

func (t BookingType) Label() string {
	switch t {
	case BookingLista:
		return "Lista"
	case BookingTavolo:
		return "Tavolo"
	}
	return string(t)
}

// BookingRequest is sent to POST /api/bookings. The promoter is assigned by the backend.
type BookingRequest struct {
	EventID     string      `json:"event_id"`
	BookingType BookingType `json:"booking_type"`
	PartySize   int         `json:"party_size"`
}

type BookingResult struct {
	Message      string `json:"message"`
	BookingID    string `json:"booking_id"`
	ChatID       string `json:"chat_id,omitempty"`
	PromoterName string `json:"promoter_name,omitempty"`
}

// Booking is an entry of GET /api/user/bookings.
type Booking struct {
	ID          string      `json:"id"`
	EventID     string      `json:"event_id"`
	BookingType BookingType `json:"booking_type"`
	PartySize   int         `json:"party_size"`
	Status      string      `json:"status"`
	CreatedAt   string      `json:"created_at,omitempty"`
	Event       *Event      `json:"event,omitempty"`
}
