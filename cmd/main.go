package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"anonmatch/backend/internal/api/handler"
	"anonmatch/backend/internal/broadcast"
	"anonmatch/backend/internal/chathub"
	"anonmatch/backend/internal/config"
	"anonmatch/backend/internal/localization"
	"anonmatch/backend/internal/logger"
	"anonmatch/backend/internal/storage"
	"anonmatch/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*gorm.DB, *redis.Client, error) {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN()), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect Redis: %w", err)
	}

	// Перевірка з'єднань пройдена
	log.Info("Database and Redis connections established")
	return db, rdb, nil
}

func main() {
	if err := run(); err != nil {
		zap.S().Errorf("ERROR: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zl, err := logger.New("anonmatch-bot", cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()
	log := zl.Sugar()

	if cfg.Telegram.Token == "" {
		return errors.New("ANONMATCH_TELEGRAM_TOKEN is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. PostgreSQL, Redis та міграції
	db, rdb, err := setupDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = rdb.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	s := storage.NewStorageService(db, rdb)
	if err := s.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := s.SeedPlans(ctx); err != nil {
		return fmt.Errorf("failed to seed subscription plans: %w", err)
	}

	// 2. Telegram-транспорт і локалізовані тексти
	localizer, err := localization.NewLocalizer()
	if err != nil {
		return err
	}
	bot, err := telegram.NewBotAPI(cfg.Telegram)
	if err != nil {
		return fmt.Errorf("failed to start Telegram bot: %w", err)
	}
	log.Infof("Authorized on account %s", bot.Self.UserName)
	sender := telegram.NewClient(bot)

	// 3. Ініціалізація Chat Hub та Matcher
	hub := chathub.NewManagerService(s, sender, telegram.HubNotices(localizer), log.Named("hub"))
	matcher := chathub.NewMatcherService(hub, s, log.Named("matcher"))
	restored, err := hub.Restore(ctx) // Відновлюємо пари після перезапуску
	if err != nil {
		return fmt.Errorf("failed to restore sessions: %w", err)
	}
	log.Infof("Restored %d active sessions", restored)

	broadcaster := broadcast.NewService(s, sender, cfg.Broadcast, log.Named("broadcast"))
	botService := telegram.NewBotService(bot, sender, hub, matcher, s, localizer, broadcaster, cfg.Admin, log.Named("bot"))

	// 4. Налаштування Gin та адмінського API
	gin.SetMode(gin.ReleaseMode)
	h := handler.NewHandler(hub, broadcaster, s, cfg.Admin, log.Named("http"))
	server := &http.Server{
		Addr:           cfg.HTTP.Addr,
		Handler:        h.Router(),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	g, gCtx := errgroup.WithContext(ctx)
	// WebSocket-з'єднання переживають Shutdown, якщо їхній контекст не завершується разом з нашим.
	server.BaseContext = func(net.Listener) context.Context { return gCtx }

	g.Go(func() error {
		log.Infof("HTTP server listening on %s", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = cfg.Telegram.PollingTimeout
		updates := bot.GetUpdatesChan(u)
		go func() {
			<-gCtx.Done()
			bot.StopReceivingUpdates()
		}()
		log.Info("Telegram polling started")
		botService.Run(gCtx, updates)
		return nil
	})

	// Коректне завершення роботи
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("failed to shutdown http server: %v", err)
		}
		return nil
	})

	return g.Wait()
}
