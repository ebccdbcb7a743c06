package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abelzeko/farm-alerts/internal/entities"
	"github.com/abelzeko/farm-alerts/internal/repository"
	"github.com/rs/zerolog"
)

// ErrUnknownSubscriber is returned when no user is registered with a contact channel
var ErrUnknownSubscriber = errors.New("no user registered with this contact")

// ErrForeignAlert is returned when a user acts on an alert of another location
var ErrForeignAlert = errors.New("alert belongs to another location")

// SubscriberRepository is the storage a subscriber use case needs
type SubscriberRepository interface {
	repository.UserRepository
	Location(ctx context.Context, id int64) (entities.Location, error)
	ActiveByLocation(ctx context.Context, locationID int64) ([]entities.Alert, error)
	Alert(ctx context.Context, alertID int64) (entities.Alert, error)
	Resolve(ctx context.Context, alertID int64) error
}

// SubscriberUseCase lets recipients inspect their alerts and manage their preferences
type SubscriberUseCase struct {
	repo   SubscriberRepository
	logger zerolog.Logger
}

// NewSubscriberUseCase creates a new subscriber use case
func NewSubscriberUseCase(repo SubscriberRepository, logger zerolog.Logger) *SubscriberUseCase {
	return &SubscriberUseCase{repo: repo, logger: logger}
}

func (uc *SubscriberUseCase) user(ctx context.Context, contact string) (entities.User, error) {
	u, err := uc.repo.UserByContact(ctx, contact)
	if errors.Is(err, repository.ErrNotFound) {
		return entities.User{}, ErrUnknownSubscriber
	}
	return u, err
}

// ActiveAlerts returns the location of the user and its active alerts
func (uc *SubscriberUseCase) ActiveAlerts(ctx context.Context, contact string) (entities.Location, []entities.Alert, error) {
	u, err := uc.user(ctx, contact)
	if err != nil {
		return entities.Location{}, nil, err
	}

	loc, err := uc.repo.Location(ctx, u.LocationID)
	if err != nil {
		return entities.Location{}, nil, fmt.Errorf("failed to load location %d: %w", u.LocationID, err)
	}

	alerts, err := uc.repo.ActiveByLocation(ctx, loc.ID)
	if err != nil {
		return entities.Location{}, nil, err
	}
	return loc, alerts, nil
}

// Preferences returns the parsed preferences of the user. Malformed entries read as absent.
func (uc *SubscriberUseCase) Preferences(ctx context.Context, contact string) (entities.Preferences, error) {
	u, err := uc.user(ctx, contact)
	if err != nil {
		return nil, err
	}
	prefs, err := entities.ParsePreferences(u.Preferences)
	if err != nil {
		uc.logger.Warn().Err(err).Int64("user_id", u.ID).Msg("stored preferences are malformed")
	}
	return prefs, nil
}

// SetPreference opts the user in or out of one alert type.
// Malformed stored entries are dropped; valid ones are kept.
func (uc *SubscriberUseCase) SetPreference(ctx context.Context, contact string, t entities.AlertType, enabled bool) (entities.Preferences, error) {
	u, err := uc.user(ctx, contact)
	if err != nil {
		return nil, err
	}

	prefs, err := entities.ParsePreferences(u.Preferences)
	if err != nil {
		uc.logger.Warn().Err(err).Int64("user_id", u.ID).Msg("replacing malformed preferences")
	}
	prefs[t] = enabled

	if err := uc.repo.UpdatePreferences(ctx, u.ID, prefs.Encode()); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}

	uc.logger.Info().Int64("user_id", u.ID).Str("alert_type", string(t)).Bool("enabled", enabled).Msg("preference updated")
	return prefs, nil
}

// ResolveAlert resolves an alert of the user's own location
func (uc *SubscriberUseCase) ResolveAlert(ctx context.Context, contact string, alertID int64) error {
	u, err := uc.user(ctx, contact)
	if err != nil {
		return err
	}

	alert, err := uc.repo.Alert(ctx, alertID)
	if err != nil {
		return err
	}
	if alert.LocationID != u.LocationID {
		return ErrForeignAlert
	}

	if err := uc.repo.Resolve(ctx, alertID); err != nil {
		return err
	}
	uc.logger.Info().Int64("user_id", u.ID).Int64("alert_id", alertID).Msg("alert resolved")
	return nil
}

// FormatAlerts formats active alerts for display
func FormatAlerts(loc entities.Location, alerts []entities.Alert) string {
	if len(alerts) == 0 {
		return fmt.Sprintf("No active alerts for %s.", loc.Name)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Active alerts for %s:\n\n", loc.Name))
	for _, a := range alerts {
		result.WriteString(fmt.Sprintf("%s #%d [%s] %s\n", severityIcon(a.Severity), a.ID, a.Type, a.Message))
		result.WriteString(fmt.Sprintf("🕒 %s\n\n", a.CreatedAt.Format("2006-01-02 15:04:05 MST")))
	}
	return result.String()
}

// FormatPreferences formats every alert type with its current opt-in state
func FormatPreferences(prefs entities.Preferences) string {
	var result strings.Builder
	result.WriteString("Alert preferences:\n\n")
	for _, t := range entities.AlertTypes {
		state := "on"
		if !prefs.Allows(t) {
			state = "off"
		}
		result.WriteString(fmt.Sprintf("• %s: %s\n", t, state))
	}
	return result.String()
}

func severityIcon(s entities.Severity) string {
	switch s {
	case entities.SeverityCritical:
		return "🔴"
	case entities.SeverityWarning:
		return "🟠"
	default:
		return "🔵"
	}
}
