// Package store persists conversation history and session snapshots.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"renoplan/internal/logging"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a session.
var ErrSnapshotNotFound = errors.New("session snapshot not found")

// LocalStore is the SQLite-backed session database.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocalStore opens the session database at path with the cgo driver.
func NewLocalStore(path string) (*LocalStore, error) {
	return NewLocalStoreWithDriver(DriverCGO, path)
}

// NewLocalStoreWithDriver opens the session database with an explicit driver.
func NewLocalStoreWithDriver(driver, path string) (*LocalStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewLocalStore")
	defer timer.Stop()

	db, err := OpenSQLite(driver, path)
	if err != nil {
		return nil, err
	}

	s := &LocalStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Store("session store ready at %s", path)
	return s, nil
}

func (s *LocalStore) initialize() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			turn_number INTEGER NOT NULL,
			user_input TEXT NOT NULL,
			destination TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(session_id, turn_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_session_history_session ON session_history(session_id)`,
		`CREATE TABLE IF NOT EXISTS session_snapshots (
			session_id TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the database location.
func (s *LocalStore) Path() string {
	return s.dbPath
}
