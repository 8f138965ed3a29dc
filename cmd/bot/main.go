package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"clubly/internal/api"
	"clubly/internal/bot"
	"clubly/internal/config"
	"clubly/internal/controller"
	"clubly/internal/database"
	"clubly/internal/events"
	"clubly/internal/logging"
	"clubly/internal/metrics"
	"clubly/internal/models"
	"clubly/internal/repository"
	"clubly/internal/service"
	"clubly/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateService := initStateService(ctx, cfg, &logger)
	defer func() { _ = repository.Close(redisClient) }()

	backend := api.NewClient(cfg.Backend, &logger)
	if redisClient != nil && cfg.Backend.CacheTTL > 0 {
		backend.UseRedisCache(redisClient, cfg.Backend.CacheTTL)
	}

	eventBus := events.NewEventBus()
	subscribeEvents(eventBus, db, &logger)

	catalog := controller.NewCatalog(backend, &logger)
	if err := catalog.Load(ctx); err != nil {
		// the scheduler or the first request will load it
		logger.Warn().Err(err).Msg("Initial catalog load failed")
	}

	registry := controller.NewRegistry(controller.Deps{
		Backend:   backend,
		Tokens:    db,
		Catalog:   catalog,
		Publisher: eventBus,
		Logger:    &logger,
	})
	restored, err := registry.Restore(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to restore sessions")
	}
	logger.Info().Int("sessions", restored).Msg("Sessions restored")

	scheduler := worker.NewScheduler(cfg.Location(), worker.RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  2 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2,
	}, &logger)
	if err := scheduler.AddJob("catalog_refresh", cfg.Bot.CatalogRefresh, catalog.Refresh); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	metrics.Register()
	httpServer := initHTTPServer(cfg, db, redisClient, &logger)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Health server error")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	return startBot(ctx, cfg, stateService, registry, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()
	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Failed to create database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Failed to create export directory")
		return err
	}
	return nil
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, models.DefaultRedisTTL)
	fallbackRepo := repository.NewMemoryStateRepository(models.DefaultRedisTTL)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

// subscribeEvents keeps the session audit trail and logs booking outcomes.
func subscribeEvents(bus *events.EventBus, db *database.DB, logger *zerolog.Logger) {
	l := logger.With().Str("component", "events").Logger()

	recordSession := func(kind string) events.EventHandler {
		return func(ev *events.Event) error {
			var p events.SessionPayload
			if err := ev.Decode(&p); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.RecordSessionEvent(ctx, p.TelegramID, p.UserID, kind)
		}
	}
	bus.Subscribe(events.EventLoggedIn, recordSession("login"))
	bus.Subscribe(events.EventLoggedOut, recordSession("logout"))

	logBooking := func(ev *events.Event) error {
		var p events.BookingPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		entry := l.Info()
		if p.Error != "" {
			entry = l.Warn().Str("error", p.Error)
		}
		entry.
			Str("event", ev.Type).
			Int64("telegram_id", p.TelegramID).
			Str("event_id", p.EventID).
			Str("booking_type", p.BookingType).
			Int("party_size", p.PartySize).
			Str("booking_id", p.BookingID).
			Msg("Booking event")
		return nil
	}
	bus.Subscribe(events.EventBookingConfirmed, logBooking)
	bus.Subscribe(events.EventBookingFailed, logBooking)

	bus.Subscribe(events.EventDashboardMutation, func(ev *events.Event) error {
		var p events.MutationPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		l.Info().Int64("telegram_id", p.TelegramID).Str("action", p.Action).Str("target_id", p.TargetID).Msg("Dashboard mutation")
		return nil
	})
}

func initHTTPServer(cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) *api.HTTPServer {
	checks := []api.ReadinessCheck{{Name: "database", Check: db.Ping}}
	if redisClient != nil {
		checks = append(checks, api.ReadinessCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return repository.Ping(ctx, redisClient) },
		})
	}
	return api.NewHTTPServer(cfg.Monitoring, logger, checks...)
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	stateService *service.StateService,
	registry *controller.Registry,
	logger *zerolog.Logger,
) error {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper)

	telegramBot, err := bot.NewBot(
		tgService, cfg, stateService, registry,
		service.NewCalendarService(cfg.Location()),
		service.NewPassService(),
		logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create bot")
		return err
	}

	go func() {
		<-ctx.Done()
		telegramBot.Stop()
	}()

	logger.Info().Msg("Bot started")
	telegramBot.Start(ctx)
	return nil
}
