package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/abelzeko/farm-alerts/internal/entities"
)

// UserRepository gives access to notification recipients
type UserRepository interface {
	UsersByLocation(ctx context.Context, locationID int64) ([]entities.User, error)
	UserByContact(ctx context.Context, contact string) (entities.User, error)
	UpdatePreferences(ctx context.Context, userID int64, raw string) error
}

const userColumns = `id, name, email, phone, user_type, COALESCE(location_id, 0), alert_preferences`

// AddUser stores a user and returns it with its id
func (s *SQLiteStore) AddUser(ctx context.Context, u entities.User) (entities.User, error) {
	var locationID any
	if u.LocationID != 0 {
		locationID = u.LocationID
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users(name, email, phone, user_type, location_id, alert_preferences)
		VALUES(?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.Phone, u.UserType, locationID, u.Preferences)
	if err != nil {
		return entities.User{}, storageErr("insert user", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return entities.User{}, storageErr("insert user", err)
	}
	return u, nil
}

// UsersByLocation returns every user affiliated with a location
func (s *SQLiteStore) UsersByLocation(ctx context.Context, locationID int64) ([]entities.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE location_id = ? ORDER BY id`, locationID)
	if err != nil {
		return nil, storageErr("query users by location", err)
	}
	defer rows.Close()

	var result []entities.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storageErr("scan user", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate users", err)
	}
	return result, nil
}

// UserByContact finds the user registered with a contact channel
func (s *SQLiteStore) UserByContact(ctx context.Context, contact string) (entities.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone = ? ORDER BY id LIMIT 1`, contact)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.User{}, ErrNotFound
	}
	if err != nil {
		return entities.User{}, storageErr("query user by contact", err)
	}
	return u, nil
}

// UpdatePreferences replaces the stored preference text of a user
func (s *SQLiteStore) UpdatePreferences(ctx context.Context, userID int64, raw string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET alert_preferences = ? WHERE id = ?`, raw, userID)
	if err != nil {
		return storageErr("update preferences", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update preferences", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.UserType, &u.LocationID, &u.Preferences)
	return u, err
}
