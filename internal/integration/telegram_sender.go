// Package integration handles external service interactions
package integration

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// chatIDPattern accepts user ids and negative group ids. A leading "+" marks a phone number.
var chatIDPattern = regexp.MustCompile(`^-?[0-9]+$`)

// TelegramSender delivers alerts as Telegram messages. Destinations are chat ids.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	logger zerolog.Logger
}

// NewTelegramSender authorizes the bot token against the Bot API.
// An empty endpoint uses the public Telegram API.
func NewTelegramSender(token, endpoint string, timeout time.Duration, logger zerolog.Logger) (*TelegramSender, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info().Str("account", bot.Self.UserName).Msg("authorized on Telegram account")
	return &TelegramSender{bot: bot, logger: logger}, nil
}

// Send posts body to the chat named by destination
func (t *TelegramSender) Send(ctx context.Context, destination, body string) error {
	if !chatIDPattern.MatchString(destination) {
		return fmt.Errorf("invalid telegram chat id %q", destination)
	}
	chatID, err := strconv.ParseInt(destination, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", destination, err)
	}

	msg := tgbotapi.NewMessage(chatID, body)

	// The Bot API client has no context support; the http client timeout bounds the call.
	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send to %d: %w", chatID, err)
		}
		return nil
	}
}

// Close is a no-op; the Bot API client holds no connections of its own
func (t *TelegramSender) Close() error {
	return nil
}
