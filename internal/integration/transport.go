package integration

import (
	"fmt"

	"github.com/abelzeko/farm-alerts/internal/config"
	"github.com/abelzeko/farm-alerts/internal/usecases"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// NewSenderFactory returns a factory building the configured transport for each dispatch run.
// Credential and connectivity problems surface when the factory is called.
func NewSenderFactory(cfg *config.Config, clock clockwork.Clock, logger zerolog.Logger) (usecases.SenderFactory, error) {
	switch cfg.Transport {
	case config.TransportTelegram:
		return func() (usecases.Sender, error) {
			s, err := NewTelegramSender(cfg.TelegramToken, cfg.TelegramEndpoint, cfg.SendTimeout, logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		}, nil
	case config.TransportSMS:
		return func() (usecases.Sender, error) {
			s, err := NewSMSGateway(cfg.SMSGatewayURL, cfg.SMSGatewayToken, cfg.SMSFrom, cfg.SendTimeout)
			if err != nil {
				return nil, err
			}
			return s, nil
		}, nil
	case config.TransportKafka:
		return func() (usecases.Sender, error) {
			s, err := NewKafkaSender(cfg.KafkaBrokers, cfg.KafkaNotifyTopic, clock)
			if err != nil {
				return nil, err
			}
			return s, nil
		}, nil
	case config.TransportLog:
		return func() (usecases.Sender, error) {
			return NewLogSender(logger), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
