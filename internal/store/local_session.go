package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"renoplan/internal/logging"
)

// Turn is one recorded exchange.
type Turn struct {
	SessionID   string
	Number      int
	UserInput   string
	Destination string
	Response    string
	CreatedAt   time.Time
}

// SessionInfo summarizes a stored session.
type SessionInfo struct {
	ID        string
	Turns     int
	UpdatedAt time.Time
}

// StoreSessionTurn records a conversation turn.
// Duplicate (session, turn) pairs are silently skipped.
func (s *LocalStore) StoreSessionTurn(ctx context.Context, t Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("storing turn: session=%s turn=%d destination=%s", t.SessionID, t.Number, t.Destination)

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO session_history (session_id, turn_number, user_input, destination, response)
		 VALUES (?, ?, ?, ?, ?)`,
		t.SessionID, t.Number, t.UserInput, t.Destination, t.Response,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to store session turn %s/%d: %v", t.SessionID, t.Number, err)
		return err
	}
	return nil
}

// GetSessionHistory returns up to limit turns in order.
func (s *LocalStore) GetSessionHistory(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	timer := logging.StartTimer(logging.CategoryStore, "GetSessionHistory")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT turn_number, user_input, destination, response, created_at
		 FROM session_history
		 WHERE session_id = ?
		 ORDER BY turn_number ASC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		t := Turn{SessionID: sessionID}
		if err := rows.Scan(&t.Number, &t.UserInput, &t.Destination, &t.Response, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ListSessions returns sessions with recorded history or a saved snapshot,
// most recent first.
func (s *LocalStore) ListSessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, SUM(turns), MAX(updated) AS updated FROM (
			SELECT session_id, COUNT(*) AS turns, MAX(created_at) AS updated
			FROM session_history GROUP BY session_id
			UNION ALL
			SELECT session_id, 0, updated_at FROM session_snapshots
		 )
		 GROUP BY session_id
		 ORDER BY updated DESC, session_id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var updated string
		if err := rows.Scan(&info.ID, &info.Turns, &updated); err != nil {
			return nil, err
		}
		info.UpdatedAt = parseSQLiteTime(updated)
		out = append(out, info)
	}
	return out, rows.Err()
}

// SaveSnapshot upserts the serialized session state.
func (s *LocalStore) SaveSnapshot(ctx context.Context, sessionID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_snapshots (session_id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(session_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		sessionID, data,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", sessionID, err)
	}
	logging.StoreDebug("saved snapshot for %s (%d bytes)", sessionID, len(data))
	return nil
}

// LoadSnapshot returns the serialized session state.
func (s *LocalStore) LoadSnapshot(ctx context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM session_snapshots WHERE session_id = ?", sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", sessionID, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", sessionID, err)
	}
	return data, nil
}

// parseSQLiteTime handles the text forms both drivers return for
// aggregated DATETIME columns.
func parseSQLiteTime(v string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
