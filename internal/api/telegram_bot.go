// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abelzeko/farm-alerts/internal/entities"
	"github.com/abelzeko/farm-alerts/internal/repository"
	"github.com/abelzeko/farm-alerts/internal/usecases"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const helpText = "Available commands:\n" +
	"/start - Start the bot\n" +
	"/alerts - Show active alerts for your farm\n" +
	"/preferences - Show which alert types you receive\n" +
	"/mute [type] - Stop notifications of a type\n" +
	"/unmute [type] - Resume notifications of a type\n" +
	"/resolve [id] - Mark an alert as resolved\n" +
	"/help - Show this help message\n\n" +
	"Alert types: soil_moisture, weather, crop_yield"

// TelegramBot lets registered users inspect alerts and manage their preferences.
// Users are matched by their chat id.
type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	useCase *usecases.SubscriberUseCase
	logger  zerolog.Logger
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, useCase *usecases.SubscriberUseCase, logger zerolog.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramBot{
		bot:     bot,
		useCase: useCase,
		logger:  logger,
	}, nil
}

// Start listens for and handles Telegram messages until ctx is cancelled
func (t *TelegramBot) Start(ctx context.Context) {
	t.logger.Info().Str("account", t.bot.Self.UserName).Msg("authorized on Telegram account")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	t.logger.Info().Msg("bot is now listening for messages")

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			t.handleMessage(ctx, update.Message)
		}
	}
}

func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	msg := tgbotapi.NewMessage(message.Chat.ID, t.reply(ctx, message))
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error().Err(err).Int64("chat_id", message.Chat.ID).Msg("error sending message")
	}
}

// reply builds the response text for one incoming message
func (t *TelegramBot) reply(ctx context.Context, message *tgbotapi.Message) string {
	if !message.IsCommand() {
		return "I don't understand. Use /help to see available commands."
	}

	contact := strconv.FormatInt(message.Chat.ID, 10)
	args := strings.TrimSpace(message.CommandArguments())
	log := t.logger.With().Str("command", message.Command()).Str("contact", contact).Logger()
	log.Debug().Str("args", args).Msg("handling command")

	switch message.Command() {
	case "start":
		return fmt.Sprintf("Welcome to Farm Alerts! Your chat id is %s. Use /alerts to see active alerts or /help for more information.", contact)

	case "help":
		return helpText

	case "alerts":
		loc, alerts, err := t.useCase.ActiveAlerts(ctx, contact)
		if err != nil {
			return t.errorText(log, err)
		}
		return usecases.FormatAlerts(loc, alerts)

	case "preferences":
		prefs, err := t.useCase.Preferences(ctx, contact)
		if err != nil {
			return t.errorText(log, err)
		}
		return usecases.FormatPreferences(prefs)

	case "mute", "unmute":
		alertType, err := entities.ParseAlertType(args)
		if err != nil {
			return fmt.Sprintf("Unknown alert type '%s'. Use one of: soil_moisture, weather, crop_yield", args)
		}
		prefs, err := t.useCase.SetPreference(ctx, contact, alertType, message.Command() == "unmute")
		if err != nil {
			return t.errorText(log, err)
		}
		return usecases.FormatPreferences(prefs)

	case "resolve":
		id, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			return "Please specify an alert id. Example: /resolve 42"
		}
		if err := t.useCase.ResolveAlert(ctx, contact, id); err != nil {
			return t.errorText(log, err)
		}
		return fmt.Sprintf("Alert #%d resolved.", id)

	default:
		return "Unknown command. Use /help to see available commands."
	}
}

func (t *TelegramBot) errorText(log zerolog.Logger, err error) string {
	switch {
	case errors.Is(err, usecases.ErrUnknownSubscriber):
		return "This chat is not registered for farm alerts. Ask your administrator to add your chat id."
	case errors.Is(err, usecases.ErrForeignAlert), errors.Is(err, repository.ErrNotFound):
		return "Alert not found for your farm."
	default:
		log.Error().Err(err).Msg("command failed")
		return "Something went wrong. Please try again later."
	}
}
