package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abelzeko/farm-alerts/internal/entities"
	"github.com/abelzeko/farm-alerts/internal/metrics"
	"github.com/abelzeko/farm-alerts/internal/repository"
	"github.com/rs/zerolog"
)

// ErrTransportInit is returned when the notification transport cannot be built.
// No alert is touched in that case.
var ErrTransportInit = errors.New("failed to initialize transport")

// Sender delivers a text message to a contact channel
type Sender interface {
	Send(ctx context.Context, destination, body string) error
	Close() error
}

// SenderFactory builds a Sender for one dispatch run
type SenderFactory func() (Sender, error)

// Outcome is the result of considering one recipient for one alert
type Outcome string

const (
	OutcomeSent       Outcome = "sent"
	OutcomeFailed     Outcome = "failed"
	OutcomeSuppressed Outcome = "suppressed" // opted out of the alert type
	OutcomeNoContact  Outcome = "no_contact"
)

// Delivery records what happened for one (alert, recipient) pair
type Delivery struct {
	AlertID     int64
	UserID      int64
	Destination string
	Outcome     Outcome
	Err         error
}

// DispatchResult aggregates one dispatch run
type DispatchResult struct {
	Alerts     int // alerts processed and marked sent
	Sent       int
	Failed     int
	Suppressed int
	NoContact  int
	Deliveries []Delivery
}

func (r *DispatchResult) record(d Delivery) {
	r.Deliveries = append(r.Deliveries, d)
	switch d.Outcome {
	case OutcomeSent:
		r.Sent++
	case OutcomeFailed:
		r.Failed++
	case OutcomeSuppressed:
		r.Suppressed++
	case OutcomeNoContact:
		r.NoContact++
	}
}

// Dispatcher sends every unsent active alert to the users of its location, then marks it sent
type Dispatcher struct {
	alerts      repository.AlertRepository
	users       repository.UserRepository
	newSender   SenderFactory
	sendTimeout time.Duration
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewDispatcher creates a dispatcher. A non-positive sendTimeout falls back to 10s.
func NewDispatcher(alerts repository.AlertRepository, users repository.UserRepository, newSender SenderFactory,
	sendTimeout time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		alerts:      alerts,
		users:       users,
		newSender:   newSender,
		sendTimeout: sendTimeout,
		logger:      logger,
		metrics:     m,
	}
}

// Dispatch runs one pass over the unsent active alerts.
// Every processed alert is marked sent whatever happened to its recipients.
// A storage error or cancellation stops the pass; the remaining alerts stay unsent.
func (d *Dispatcher) Dispatch(ctx context.Context) (DispatchResult, error) {
	var result DispatchResult

	pending, err := d.alerts.FindUnsentActive(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load unsent alerts: %w", err)
	}
	if len(pending) == 0 {
		d.logger.Info().Msg("no new alerts to send")
		return result, nil
	}

	sender, err := d.newSender()
	if err != nil {
		d.logger.Error().Err(err).Int("pending", len(pending)).Msg("notification transport unavailable")
		return result, fmt.Errorf("%w: %w", ErrTransportInit, err)
	}
	defer func() {
		if err := sender.Close(); err != nil {
			d.logger.Warn().Err(err).Msg("closing notification transport")
		}
	}()

	d.logger.Info().Int("pending", len(pending)).Msg("dispatching alerts")

	for _, alert := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		recipients, err := d.users.UsersByLocation(ctx, alert.LocationID)
		if err != nil {
			return result, fmt.Errorf("failed to load recipients for alert %d: %w", alert.ID, err)
		}

		for _, user := range recipients {
			result.record(d.deliver(ctx, sender, alert, user))
		}

		if err := d.alerts.MarkSent(ctx, alert.ID); err != nil {
			return result, fmt.Errorf("failed to mark alert %d sent: %w", alert.ID, err)
		}
		result.Alerts++
		d.metrics.AlertsMarkedSent.Inc()

		d.logger.Debug().
			Int64("alert_id", alert.ID).
			Int("recipients", len(recipients)).
			Msg("alert marked sent")
	}

	d.logger.Info().
		Int("alerts", result.Alerts).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Int("suppressed", result.Suppressed).
		Int("no_contact", result.NoContact).
		Msg("dispatch finished")

	return result, nil
}

// deliver decides and performs the send for one recipient. It never returns an error:
// failures are part of the Delivery.
func (d *Dispatcher) deliver(ctx context.Context, sender Sender, alert entities.Alert, user entities.User) Delivery {
	delivery := Delivery{AlertID: alert.ID, UserID: user.ID, Destination: user.Phone}

	prefs, err := entities.ParsePreferences(user.Preferences)
	if err != nil {
		// Fail open per entry; prefs keeps the valid ones.
		d.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("ignoring malformed alert preferences")
	}

	if !prefs.Allows(alert.Type) {
		delivery.Outcome = OutcomeSuppressed
		d.metrics.NotificationsSuppressed.WithLabelValues("preference").Inc()
		return delivery
	}

	if user.Phone == "" {
		delivery.Outcome = OutcomeNoContact
		d.metrics.NotificationsSuppressed.WithLabelValues("no_contact").Inc()
		return delivery
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := sender.Send(sendCtx, user.Phone, alert.Message); err != nil {
		d.logger.Warn().
			Err(err).
			Int64("alert_id", alert.ID).
			Int64("user_id", user.ID).
			Msg("failed to send alert notification")
		delivery.Outcome = OutcomeFailed
		delivery.Err = err
		d.metrics.NotificationFailures.Inc()
		return delivery
	}

	delivery.Outcome = OutcomeSent
	d.metrics.NotificationsSent.Inc()
	return delivery
}
