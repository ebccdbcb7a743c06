package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/abelzeko/farm-alerts/internal/entities"
)

// AlertRepository owns the alert lifecycle: creation, sent marking and resolution
type AlertRepository interface {
	// Create persists all candidates in one transaction as active and unsent.
	Create(ctx context.Context, candidates []entities.AlertCandidate) ([]entities.Alert, error)
	// FindUnsentActive returns active alerts not yet sent. No ordering is promised.
	FindUnsentActive(ctx context.Context) ([]entities.Alert, error)
	// MarkSent sets is_sent. Calling it again is a no-op.
	MarkSent(ctx context.Context, alertID int64) error
	// Resolve deactivates an alert and stamps resolved_at once.
	Resolve(ctx context.Context, alertID int64) error
	ActiveByLocation(ctx context.Context, locationID int64) ([]entities.Alert, error)
	Alert(ctx context.Context, alertID int64) (entities.Alert, error)
}

const alertColumns = `id, location_id, created_at, alert_type, severity, message, is_active, is_sent, resolved_at`

// Create stores alert candidates. Either every candidate is stored or none is.
func (s *SQLiteStore) Create(ctx context.Context, candidates []entities.AlertCandidate) ([]entities.Alert, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin transaction", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alerts(location_id, created_at, alert_type, severity, message, is_active, is_sent, resolved_at)
		VALUES(?, ?, ?, ?, ?, 1, 0, NULL)`)
	if err != nil {
		tx.Rollback()
		return nil, storageErr("prepare alert insert", err)
	}
	defer stmt.Close()

	persisted := make([]entities.Alert, 0, len(candidates))
	for _, c := range candidates {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = s.now()
		}
		createdAt = createdAt.UTC()

		res, err := stmt.ExecContext(ctx, c.LocationID, createdAt, string(c.Type), string(c.Severity), c.Message)
		if err != nil {
			tx.Rollback()
			return nil, storageErr(fmt.Sprintf("insert %s alert for location %d", c.Type, c.LocationID), err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			tx.Rollback()
			return nil, storageErr("insert alert", err)
		}
		persisted = append(persisted, entities.Alert{
			ID:         id,
			LocationID: c.LocationID,
			Type:       c.Type,
			Severity:   c.Severity,
			Message:    c.Message,
			IsActive:   true,
			IsSent:     false,
			CreatedAt:  createdAt,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit alerts", err)
	}

	s.logger.Debug().Int("count", len(persisted)).Msg("alerts saved")
	return persisted, nil
}

// FindUnsentActive returns every alert with is_active set and is_sent unset
func (s *SQLiteStore) FindUnsentActive(ctx context.Context) ([]entities.Alert, error) {
	return s.queryAlerts(ctx, "query unsent alerts",
		`SELECT `+alertColumns+` FROM alerts WHERE is_active = 1 AND is_sent = 0`)
}

// ActiveByLocation returns the active alerts of a location, newest first
func (s *SQLiteStore) ActiveByLocation(ctx context.Context, locationID int64) ([]entities.Alert, error) {
	return s.queryAlerts(ctx, "query active alerts",
		`SELECT `+alertColumns+` FROM alerts WHERE is_active = 1 AND location_id = ? ORDER BY created_at DESC, id DESC`,
		locationID)
}

// Alert returns a single alert by id
func (s *SQLiteStore) Alert(ctx context.Context, alertID int64) (entities.Alert, error) {
	alerts, err := s.queryAlerts(ctx, "query alert",
		`SELECT `+alertColumns+` FROM alerts WHERE id = ?`, alertID)
	if err != nil {
		return entities.Alert{}, err
	}
	if len(alerts) == 0 {
		return entities.Alert{}, ErrNotFound
	}
	return alerts[0], nil
}

// MarkSent flips is_sent in a single statement, so concurrent callers cannot lose the update
func (s *SQLiteStore) MarkSent(ctx context.Context, alertID int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE alerts SET is_sent = 1 WHERE id = ?`, alertID); err != nil {
		return storageErr(fmt.Sprintf("mark alert %d sent", alertID), err)
	}
	return nil
}

// Resolve marks an active alert resolved. An already resolved alert keeps its resolved_at.
func (s *SQLiteStore) Resolve(ctx context.Context, alertID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET is_active = 0, resolved_at = ? WHERE id = ? AND is_active = 1`,
		s.now(), alertID)
	if err != nil {
		return storageErr(fmt.Sprintf("resolve alert %d", alertID), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(fmt.Sprintf("resolve alert %d", alertID), err)
	}
	if n == 0 {
		if _, err := s.Alert(ctx, alertID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) queryAlerts(ctx context.Context, op, query string, args ...any) ([]entities.Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var result []entities.Alert
	for rows.Next() {
		var (
			a          entities.Alert
			typ, sev   string
			resolvedAt sql.NullTime
		)
		if err := rows.Scan(
			&a.ID,
			&a.LocationID,
			&a.CreatedAt,
			&typ,
			&sev,
			&a.Message,
			&a.IsActive,
			&a.IsSent,
			&resolvedAt,
		); err != nil {
			return nil, storageErr("scan alert", err)
		}
		a.Type = entities.AlertType(typ)
		a.Severity = entities.Severity(sev)
		if resolvedAt.Valid {
			t := resolvedAt.Time
			a.ResolvedAt = &t
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return result, nil
}
