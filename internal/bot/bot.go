package bot

import (
	"context"
	"errors"
	"time"

	"clubly/internal/config"
	"clubly/internal/controller"
	"clubly/internal/domain"
	"clubly/internal/logging"
	"clubly/internal/metrics"
	"clubly/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const updateTimeout = 30 * time.Second

// Bot is the Telegram front end of the Clubly client. Each Telegram user
// drives their own controller.App through commands, inline buttons and
// multi-step forms.
type Bot struct {
	tgService    domain.TelegramService
	config       *config.Config
	stateService domain.StateManager
	registry     *controller.Registry
	calendar     *service.CalendarService
	pass         *service.PassService
	forms        map[string]*formSpec
	secrets      *secretStore
	logger       *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	cfg *config.Config,
	stateService domain.StateManager,
	registry *controller.Registry,
	calendar *service.CalendarService,
	pass *service.PassService,
	logger *zerolog.Logger,
) (*Bot, error) {
	if tgService == nil || cfg == nil || stateService == nil || registry == nil {
		return nil, errors.New("bot: telegram service, config, state service and registry are required")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if calendar == nil {
		calendar = service.NewCalendarService(cfg.Location())
	}
	if pass == nil {
		pass = service.NewPassService()
	}

	b := &Bot{
		tgService:    tgService,
		config:       cfg,
		stateService: stateService,
		registry:     registry,
		calendar:     calendar,
		pass:         pass,
		secrets:      newSecretStore(),
		logger:       logger,
	}
	b.forms = buildForms()
	return b, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func updateSender(update tgbotapi.Update) (userID, chatID int64) {
	switch {
	case update.CallbackQuery != nil:
		userID = update.CallbackQuery.From.ID
		if update.CallbackQuery.Message != nil {
			chatID = update.CallbackQuery.Message.Chat.ID
		}
	case update.Message != nil && update.Message.From != nil:
		userID = update.Message.From.ID
		chatID = update.Message.Chat.ID
	}
	return userID, chatID
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	userID, chatID := updateSender(update)
	if userID == 0 || chatID == 0 {
		return
	}

	kind := "message"
	if update.CallbackQuery != nil {
		kind = "callback"
	}
	start := time.Now()
	defer func() {
		metrics.ObserveUpdate(kind, time.Since(start))
	}()

	// every update gets its own deadline
	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()
	updateCtx, l := logging.WithUpdate(updateCtx, b.logger, userID)

	b.withRecovery(l, func() {
		if !b.allowUpdate(updateCtx, userID) {
			if update.CallbackQuery != nil {
				_ = b.tgService.AnswerCallback(update.CallbackQuery.ID, rateLimitText)
			} else {
				b.sendMessage(chatID, rateLimitText)
			}
			return
		}

		app := b.registry.Get(updateCtx, userID)

		if update.CallbackQuery != nil {
			b.handleCallbackQuery(updateCtx, update.CallbackQuery, app)
			return
		}
		b.handleMessage(updateCtx, update.Message, app)
	})
}
