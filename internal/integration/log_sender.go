package integration

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender only logs notifications. Used for dry runs and local development.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a dry-run sender
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the notification instead of delivering it
func (l *LogSender) Send(_ context.Context, destination, body string) error {
	l.logger.Info().Str("to", destination).Str("body", body).Msg("notification (dry run)")
	return nil
}

// Close is a no-op
func (l *LogSender) Close() error { return nil }
