package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/abelzeko/farm-alerts/internal/api"
	"github.com/abelzeko/farm-alerts/internal/config"
	"github.com/abelzeko/farm-alerts/internal/logger"
	"github.com/abelzeko/farm-alerts/internal/repository"
	"github.com/abelzeko/farm-alerts/internal/usecases"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.WithComponent("bot")
	log.Info().Msg("starting farm alerts bot")

	// Initialize repository
	store, err := repository.NewSQLiteStore(cfg.DBPath, repository.WithLogger(logger.WithComponent("repository")))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize repository")
	}
	defer store.Close()

	useCase := usecases.NewSubscriberUseCase(store, logger.WithComponent("subscribers"))

	if cfg.TelegramToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	telegramBot, err := api.NewTelegramBot(cfg.TelegramToken, useCase, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Telegram bot")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the bot
	telegramBot.Start(ctx)
	log.Info().Msg("bot stopped")
}
