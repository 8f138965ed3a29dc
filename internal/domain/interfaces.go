package domain

import (
	"context"
	"time"

	"clubly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Profile(ctx context.Context, token string) (*models.User, error)
	CompleteSetup(ctx context.Context, token string, req models.SetupRequest) (*models.User, error)
	ChangePassword(ctx context.Context, token string, req models.ChangePasswordRequest) (*models.User, error)
	EditProfile(ctx context.Context, token string, req models.ProfileEditRequest) (*models.User, error)
	ForgetToken(token string)
}

type CatalogAPI interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	RefreshEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
}

type BookingAPI interface {
	CreateBooking(ctx context.Context, token string, req models.BookingRequest) (*models.BookingResult, error)
	UserBookings(ctx context.Context, token string) ([]models.Booking, error)
}

type ChatAPI interface {
	ListChats(ctx context.Context, token string) ([]models.Chat, error)
	ChatMessages(ctx context.Context, token, chatID string) ([]models.Message, error)
	SendMessage(ctx context.Context, token string, req models.SendMessageRequest) (string, error)
	UnreadCount(ctx context.Context, token string) (int, error)
}

type DashboardAPI interface {
	Dashboard(ctx context.Context, token string, view models.DashboardView) (*models.Dashboard, error)
}

// AdminAPI covers the founder and capo promoter management surface.
type AdminAPI interface {
	CreateEvent(ctx context.Context, token string, in models.EventInput) (string, error)
	UpdateEvent(ctx context.Context, token, id string, in models.EventInput) error
	UpdateEventLimited(ctx context.Context, token, id string, in models.EventLimitedInput) error
	UpdateEventPoster(ctx context.Context, token, id, poster string) error
	DeleteEvent(ctx context.Context, token, id string) error

	ListOrganizations(ctx context.Context, token string) ([]models.Organization, error)
	GetOrganization(ctx context.Context, token, id string) (*models.Organization, error)
	CreateOrganization(ctx context.Context, token string, in models.OrganizationInput) (string, error)
	UpdateOrganization(ctx context.Context, token, id string, in models.OrganizationInput) error
	AssignCapoPromoter(ctx context.Context, token, orgID, userID string) error
	AvailableCapoPromoters(ctx context.Context, token string) ([]models.User, error)
	OrganizationPromoters(ctx context.Context, token, orgName string) ([]models.User, error)

	IssueCredentials(ctx context.Context, token string, req models.TemporaryCredentialsRequest) (*models.TemporaryCredentialsResult, error)
	SearchUsers(ctx context.Context, token string, req models.UserSearchRequest) ([]models.User, error)
	UserProfile(ctx context.Context, token, userID string) (*models.User, error)
}

// Backend is the whole Clubly REST API as seen by the client.
type Backend interface {
	AuthAPI
	CatalogAPI
	BookingAPI
	ChatAPI
	DashboardAPI
	AdminAPI
}

// TokenStore is the persistent client storage: one auth token per Telegram user.
type TokenStore interface {
	GetToken(ctx context.Context, telegramID int64) (string, error)
	SetToken(ctx context.Context, telegramID int64, token string) error
	ClearToken(ctx context.Context, telegramID int64) error
	TelegramIDs(ctx context.Context) ([]int64, error)
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.FormState, error)
	SetState(ctx context.Context, state *models.FormState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.FormState, error)
	StartForm(ctx context.Context, userID int64, form, step string) (*models.FormState, error)
	SaveUserState(ctx context.Context, state *models.FormState) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendPhoto(chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error)
	SendPhotoURL(chatID int64, url, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendDocument(chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
