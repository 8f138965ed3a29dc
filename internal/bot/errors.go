package bot

import (
	"errors"

	"clubly/internal/controller"
)

var errPasswordMismatch = errors.New("le password non coincidono")

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	// the server message is shown as is
	var failure *controller.Failure
	if errors.As(err, &failure) {
		return "⚠️ " + failure.Message
	}

	switch {
	case errors.Is(err, controller.ErrNotAuthenticated):
		return "🔐 Devi accedere per continuare. Usa /login oppure /register."
	case errors.Is(err, controller.ErrMissingCredentials):
		return "⚠️ Inserisci email o username e password."
	case errors.Is(err, controller.ErrMissingFields):
		return "⚠️ Compila tutti i campi obbligatori."
	case errors.Is(err, controller.ErrNoEventSelected), errors.Is(err, controller.ErrBookingNotOpen):
		return "⚠️ Nessuna prenotazione aperta. Scegli un evento dalla lista: /events"
	case errors.Is(err, controller.ErrInvalidBookingType):
		return "⚠️ Scegli il tipo di prenotazione: Lista o Tavolo."
	case errors.Is(err, controller.ErrInvalidPartySize):
		return "⚠️ Numero di persone non valido per questo evento."
	case errors.Is(err, controller.ErrBookingInProgress):
		return "⏳ Prenotazione in corso, attendi la conferma."
	case errors.Is(err, controller.ErrNoChatSelected):
		return "⚠️ Seleziona prima una chat: /chats"
	case errors.Is(err, controller.ErrEmptyMessage):
		return "⚠️ Il messaggio è vuoto."
	case errors.Is(err, controller.ErrSendInProgress):
		return "⏳ Invio del messaggio precedente in corso."
	case errors.Is(err, controller.ErrGateActive):
		return "⚠️ Completa prima il tuo profilo."
	case errors.Is(err, controller.ErrForbiddenView):
		return "⛔ Non hai accesso a questa sezione."
	case errors.Is(err, errPasswordMismatch):
		return "⚠️ Le password non coincidono."
	}

	return "❌ Si è verificato un errore. Riprova più tardi."
}
