// Package session holds the per-conversation state that every agent
// receives explicitly: the asset version store, the reference registry
// and the conversation flags.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"renoplan/internal/assets"
	"renoplan/internal/logging"
	"renoplan/internal/store"
)

// Session is one conversation's mutable state. It is safe for concurrent use.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Versions   *assets.VersionStore
	References *assets.Registry

	mu               sync.RWMutex
	lastRendering    string
	currentAsset     string
	attachReferences bool
	turn             int
}

// New returns an empty session with a fresh ID.
func New() *Session {
	return &Session{
		ID:               "sess_" + uuid.NewString(),
		CreatedAt:        time.Now(),
		Versions:         assets.NewVersionStore(),
		References:       assets.NewRegistry(),
		attachReferences: true,
	}
}

// LastRendering returns the filename of the most recent rendering.
func (s *Session) LastRendering() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRendering, s.lastRendering != ""
}

// CurrentAsset returns the asset the conversation is working on.
func (s *Session) CurrentAsset() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentAsset, s.currentAsset != ""
}

// RecordRendering marks filename (a version of asset) as the latest output.
func (s *Session) RecordRendering(asset, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentAsset = asset
	s.lastRendering = filename
}

// AttachReferences reports whether uploaded images accompany the next turn.
func (s *Session) AttachReferences() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attachReferences
}

// SetAttachReferences toggles reference attachment.
func (s *Session) SetAttachReferences(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachReferences = on
}

// NextTurn advances and returns the turn counter.
func (s *Session) NextTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turn++
	return s.turn
}

// Turn returns the current turn number.
func (s *Session) Turn() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turn
}

// snapshot is the persisted form of a Session.
type snapshot struct {
	ID               string             `json:"id"`
	CreatedAt        time.Time          `json:"created_at"`
	Versions         assets.Snapshot    `json:"versions"`
	References       []assets.Reference `json:"references"`
	LastRendering    string             `json:"last_rendering,omitempty"`
	CurrentAsset     string             `json:"current_asset,omitempty"`
	AttachReferences bool               `json:"attach_references"`
	Turn             int                `json:"turn"`
}

// MarshalJSON encodes the full session state.
func (s *Session) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	snap := snapshot{
		ID:               s.ID,
		CreatedAt:        s.CreatedAt,
		LastRendering:    s.lastRendering,
		CurrentAsset:     s.currentAsset,
		AttachReferences: s.attachReferences,
		Turn:             s.turn,
	}
	s.mu.RUnlock()

	snap.Versions = s.Versions.Snapshot()
	snap.References = s.References.List()
	return json.Marshal(snap)
}

// Decode rebuilds a session from MarshalJSON output.
func Decode(data []byte) (*Session, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if snap.ID == "" {
		return nil, errors.New("decode session: missing id")
	}

	s := &Session{
		ID:               snap.ID,
		CreatedAt:        snap.CreatedAt,
		Versions:         assets.NewVersionStore(),
		References:       assets.NewRegistry(),
		lastRendering:    snap.LastRendering,
		currentAsset:     snap.CurrentAsset,
		attachReferences: snap.AttachReferences,
		turn:             snap.Turn,
	}
	if err := s.Versions.Restore(snap.Versions); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", snap.ID, err)
	}
	s.References.Restore(snap.References)
	return s, nil
}

// Save persists s to snaps.
func Save(ctx context.Context, snaps store.SnapshotStore, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := snaps.SaveSnapshot(ctx, s.ID, data); err != nil {
		return err
	}
	logging.SessionDebug("saved session %s (turn %d)", s.ID, s.Turn())
	return nil
}

// Load restores session id from snaps.
func Load(ctx context.Context, snaps store.SnapshotStore, id string) (*Session, error) {
	data, err := snaps.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	s, err := Decode(data)
	if err != nil {
		return nil, err
	}
	logging.Session("resumed session %s: %d assets, %d references", s.ID, s.Versions.Len(), s.References.Len())
	return s, nil
}
