// Package config loads service settings from the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Notification transports
const (
	TransportLog      = "log"
	TransportTelegram = "telegram"
	TransportSMS      = "sms"
	TransportKafka    = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DBPath string

	CheckSchedule    string
	DispatchSchedule string
	RunOnStart       bool

	Transport   string
	SendTimeout time.Duration

	TelegramToken    string
	TelegramEndpoint string

	SMSGatewayURL   string
	SMSGatewayToken string
	SMSFrom         string

	KafkaBrokers     []string
	KafkaNotifyTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// LoadDotEnv loads variables from the given .env files (default ".env").
// Missing files are ignored; variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	sendTimeout, err := parseDuration("SEND_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	runOnStart, err := parseBool("RUN_ON_START", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:           envOrDefault("DB_PATH", "data/farmalerts.db"),
		CheckSchedule:    envOrDefault("CHECK_SCHEDULE", "0 * * * *"),
		DispatchSchedule: os.Getenv("DISPATCH_SCHEDULE"),
		RunOnStart:       runOnStart,
		Transport:        strings.ToLower(envOrDefault("TRANSPORT", TransportLog)),
		SendTimeout:      sendTimeout,
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramEndpoint: os.Getenv("TELEGRAM_API_ENDPOINT"),
		SMSGatewayURL:    os.Getenv("SMS_GATEWAY_URL"),
		SMSGatewayToken:  os.Getenv("SMS_GATEWAY_TOKEN"),
		SMSFrom:          os.Getenv("SMS_FROM"),
		KafkaBrokers:     parseList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaNotifyTopic: envOrDefault("KAFKA_NOTIFY_TOPIC", "farm-alert-notifications"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
	}

	if _, err := cron.ParseStandard(cfg.CheckSchedule); err != nil {
		return nil, fmt.Errorf("invalid CHECK_SCHEDULE %q: %w", cfg.CheckSchedule, err)
	}
	if cfg.DispatchSchedule != "" {
		if _, err := cron.ParseStandard(cfg.DispatchSchedule); err != nil {
			return nil, fmt.Errorf("invalid DISPATCH_SCHEDULE %q: %w", cfg.DispatchSchedule, err)
		}
	}

	switch cfg.Transport {
	case TransportLog:
	case TransportTelegram:
		if cfg.TelegramToken == "" {
			return nil, errors.New("TRANSPORT is telegram but TELEGRAM_BOT_TOKEN is not set")
		}
	case TransportSMS:
		if cfg.SMSGatewayURL == "" {
			return nil, errors.New("TRANSPORT is sms but SMS_GATEWAY_URL is not set")
		}
	case TransportKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaNotifyTopic == "" {
			return nil, errors.New("KAFKA_NOTIFY_TOPIC is required")
		}
	default:
		return nil, fmt.Errorf("invalid TRANSPORT %q", cfg.Transport)
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
