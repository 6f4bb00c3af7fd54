package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"renoplan/internal/logging"
	"renoplan/internal/store"
)

// SQLStore keeps artifact versions as blobs in SQLite.
type SQLStore struct {
	db     *sql.DB
	driver string
	mu     sync.Mutex
}

// OpenSQL opens (or creates) the artifact database at path.
func OpenSQL(driver, path string) (*SQLStore, error) {
	db, err := store.OpenSQLite(driver, path)
	if err != nil {
		return nil, err
	}
	s := &SQLStore{db: db, driver: driver}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Artifacts("sqlite artifact store ready at %s (driver %s)", path, driver)
	return s, nil
}

func (s *SQLStore) initialize() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS artifacts (
		filename   TEXT NOT NULL,
		version    INTEGER NOT NULL,
		mime_type  TEXT NOT NULL,
		data       BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (filename, version)
	)`)
	if err != nil {
		return fmt.Errorf("failed to create artifacts table: %w", err)
	}
	return nil
}

// Save stores a new version of filename.
func (s *SQLStore) Save(ctx context.Context, filename string, data []byte, mimeType string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", filename, err)
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) + 1 FROM artifacts WHERE filename = ?", filename,
	).Scan(&version); err != nil {
		return 0, fmt.Errorf("save %s: %w", filename, err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO artifacts (filename, version, mime_type, data) VALUES (?, ?, ?, ?)",
		filename, version, mimeType, data,
	); err != nil {
		return 0, fmt.Errorf("save %s: %w", filename, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save %s: %w", filename, err)
	}

	logging.Artifacts("saved %s v%d (%d bytes)", filename, version, len(data))
	return version, nil
}

// Load returns the latest version of filename.
func (s *SQLStore) Load(ctx context.Context, filename string) (*Blob, error) {
	b := &Blob{Filename: filename}
	err := s.db.QueryRowContext(ctx,
		`SELECT version, mime_type, data FROM artifacts
		 WHERE filename = ? ORDER BY version DESC LIMIT 1`, filename,
	).Scan(&b.Version, &b.MIMEType, &b.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", filename, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return b, nil
}

// List returns stored filenames in first-saved order.
func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename FROM artifacts GROUP BY filename ORDER BY MIN(rowid)`)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list artifacts: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
