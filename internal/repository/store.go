// Package repository provides data access implementations
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// ErrStorage marks every failure that comes from the database itself
var ErrStorage = errors.New("storage error")

// ErrNotFound is returned by lookups that match no row
var ErrNotFound = errors.New("not found")

// StorageError describes a failed store operation
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS sensors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sensor_key TEXT NOT NULL UNIQUE,
		location_id INTEGER NOT NULL REFERENCES locations(id),
		sensor_type TEXT NOT NULL,
		installed_at DATETIME NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS sensor_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sensor_id INTEGER NOT NULL REFERENCES sensors(id),
		timestamp DATETIME NOT NULL,
		value REAL NOT NULL
	);
	CREATE TABLE IF NOT EXISTS weather_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location_id INTEGER NOT NULL REFERENCES locations(id),
		timestamp DATETIME NOT NULL,
		temperature REAL NOT NULL,
		humidity REAL NOT NULL,
		rainfall REAL NOT NULL,
		wind_speed REAL NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS crop_yields (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location_id INTEGER NOT NULL REFERENCES locations(id),
		timestamp DATETIME NOT NULL,
		crop_type TEXT NOT NULL,
		yield_value REAL NOT NULL,
		prediction BOOLEAN NOT NULL DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location_id INTEGER NOT NULL REFERENCES locations(id),
		created_at DATETIME NOT NULL,
		alert_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		is_sent BOOLEAN NOT NULL DEFAULT 0,
		resolved_at DATETIME
	);
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		user_type TEXT NOT NULL DEFAULT '',
		location_id INTEGER REFERENCES locations(id),
		alert_preferences TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_readings_sensor_ts ON sensor_readings(sensor_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_weather_location_ts ON weather_data(location_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_yields_location_ts ON crop_yields(location_id, prediction, timestamp);
	CREATE INDEX IF NOT EXISTS idx_alerts_state ON alerts(is_active, is_sent);
	CREATE INDEX IF NOT EXISTS idx_users_location ON users(location_id);
	CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone);`

// SQLiteStore implements ReadingRepository, AlertRepository and UserRepository using SQLite.
// Several processes may open the same file; WAL mode and a busy timeout keep
// single-statement updates atomic between them.
type SQLiteStore struct {
	db     *sql.DB
	clock  clockwork.Clock
	logger zerolog.Logger
	DBPath string
}

// Option customizes a SQLiteStore
type Option func(*SQLiteStore)

// WithClock sets the time source used for created_at and resolved_at
func WithClock(c clockwork.Clock) Option {
	return func(s *SQLiteStore) { s.clock = c }
}

// WithLogger sets the store logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *SQLiteStore) { s.logger = l }
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and ensures the schema
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = filepath.Join("data", "farmalerts.db")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	s := &SQLiteStore{
		clock:  clockwork.NewRealClock(),
		logger: zerolog.Nop(),
		DBPath: dbPath,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info().Str("path", dbPath).Msg("opening database")
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, storageErr("open database", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, storageErr("create tables", err)
	}

	s.db = db
	return s, nil
}

// Ping verifies the database is reachable
func (s *SQLiteStore) Ping() error {
	if err := s.db.Ping(); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) now() time.Time {
	return s.clock.Now().UTC()
}
