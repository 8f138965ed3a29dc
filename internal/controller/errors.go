package controller

import (
	"errors"

	"clubly/internal/api"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrMissingCredentials = errors.New("identifier and password are required")
	ErrMissingFields      = errors.New("required fields are missing")
	ErrNoEventSelected    = errors.New("no event selected")
	ErrInvalidBookingType = errors.New("booking type must be lista or tavolo")
	ErrInvalidPartySize   = errors.New("party size out of range")
	ErrBookingInProgress  = errors.New("booking already being submitted")
	ErrBookingNotOpen     = errors.New("booking form is not open")
	ErrNoChatSelected     = errors.New("no chat selected")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrSendInProgress     = errors.New("a message is already being sent")
	ErrGateActive         = errors.New("profile completion required")
	ErrForbiddenView      = errors.New("dashboard view not available for this role")
)

// Generic texts used when the backend gives no message.
const (
	LoginFailedText    = "Credenziali non valide"
	RegisterFailedText = "Errore durante la registrazione"
	BookingFailedText  = "Errore durante la prenotazione"
	SendFailedText     = "Errore nell'invio del messaggio"
	ActionFailedText   = "Operazione non riuscita"
)

// Failure is a backend or transport error with the text to show the user.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

func fail(err error, fallback string) error {
	return &Failure{Message: api.ErrorMessage(err, fallback), Err: err}
}
