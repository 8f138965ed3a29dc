package service

import (
	"errors"
	"net/http"
	"time"

	"clubly/internal/domain"
	"clubly/internal/models"
	"clubly/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultSendRetry retries sends throttled by Telegram (HTTP 429).
var DefaultSendRetry = worker.RetryPolicy{
	MaxRetries:    3,
	InitialDelay:  time.Second,
	MaxDelay:      10 * time.Second,
	BackoffFactor: 2,
}

type TelegramService struct {
	bot   domain.TelegramSender
	retry worker.RetryPolicy
	sleep func(time.Duration)
}

func NewTelegramService(bot domain.TelegramSender) *TelegramService {
	return &TelegramService{
		bot:   bot,
		retry: DefaultSendRetry,
		sleep: time.Sleep,
	}
}

// retryAfter returns how long Telegram asked us to wait, if it throttled us.
func retryAfter(err error) (time.Duration, bool) {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) || tgErr.Code != http.StatusTooManyRequests {
		return 0, false
	}
	return time.Duration(tgErr.RetryAfter) * time.Second, true
}

func (s *TelegramService) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var (
		msg tgbotapi.Message
		err error
	)
	for attempt := 1; ; attempt++ {
		msg, err = s.bot.Send(c)
		if err == nil {
			return msg, nil
		}
		wait, throttled := retryAfter(err)
		if !throttled || attempt > s.retry.MaxRetries {
			return msg, err
		}
		if next := s.retry.NextDelay(attempt); next > wait {
			wait = next
		}
		s.sleep(wait)
	}
}

func (s *TelegramService) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return s.bot.Request(c)
}

func (s *TelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return s.Send(msg)
}

func (s *TelegramService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeMarkdown
	return s.Send(msg)
}

func (s *TelegramService) SendWithInlineKeyboard(
	chatID int64,
	text string,
	keyboard tgbotapi.InlineKeyboardMarkup,
) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeMarkdown
	msg.ReplyMarkup = keyboard
	return s.Send(msg)
}

func (s *TelegramService) EditMessage(
	chatID int64,
	messageID int,
	text string,
	keyboard *tgbotapi.InlineKeyboardMarkup,
) (tgbotapi.Message, error) {
	if keyboard != nil {
		msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *keyboard)
		msg.ParseMode = models.ParseModeMarkdown
		return s.Send(msg)
	}
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = models.ParseModeMarkdown
	return s.Send(msg)
}

// SendPhoto uploads an in-memory image, e.g. the entry pass QR code.
func (s *TelegramService) SendPhoto(chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	photo.ParseMode = models.ParseModeMarkdown
	return s.Send(photo)
}

// SendPhotoURL shows an event poster hosted elsewhere.
func (s *TelegramService) SendPhotoURL(chatID int64, url, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption
	photo.ParseMode = models.ParseModeMarkdown
	if keyboard != nil {
		photo.ReplyMarkup = *keyboard
	}
	return s.Send(photo)
}

func (s *TelegramService) SendDocument(chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	return s.Send(doc)
}

func (s *TelegramService) AnswerCallback(callbackID, text string) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	_, err := s.bot.Request(callback)
	return err
}

func (s *TelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return s.bot.GetUpdatesChan(config)
}

func (s *TelegramService) GetSelf() tgbotapi.User {
	return s.bot.GetSelf()
}

func (s *TelegramService) StopReceivingUpdates() {
	s.bot.StopReceivingUpdates()
}
