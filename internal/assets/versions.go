// Package assets tracks the session's named, versioned renderings and the
// reference images the user supplied.
package assets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultExtension is used when a caller does not name one.
const DefaultExtension = "png"

var (
	// ErrNonContiguousVersion is returned by Commit when the version is not
	// exactly one past the asset's current version.
	ErrNonContiguousVersion = errors.New("non-contiguous version")

	// ErrDuplicateFilename is returned when a filename is already owned by
	// another history entry.
	ErrDuplicateFilename = errors.New("filename already committed")

	// ErrInvalidAssetName rejects empty names and names containing path
	// separators.
	ErrInvalidAssetName = errors.New("invalid asset name")

	errReservationClosed = errors.New("reservation already committed or released")
)

// Filename builds "{name}_v{version}.{ext}". An empty ext means png.
func Filename(name string, version int, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = DefaultExtension
	}
	return fmt.Sprintf("%s_v%d.%s", name, version, ext)
}

// Version is one committed history entry.
type Version struct {
	Number    int       `json:"version"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is the per-asset row returned by ListAll.
type Summary struct {
	Count          int
	LatestVersion  int
	LatestFilename string
}

// VersionStore holds the version history of every asset in one session.
// It is safe for concurrent use.
type VersionStore struct {
	mu      sync.RWMutex
	history map[string][]Version
	order   []string
	owners  map[string]string // filename -> asset name

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	now func() time.Time
}

// NewVersionStore returns an empty store.
func NewVersionStore() *VersionStore {
	return &VersionStore{
		history: make(map[string][]Version),
		owners:  make(map[string]string),
		locks:   make(map[string]chan struct{}),
		now:     time.Now,
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// NextVersion returns the version the next commit of name must carry.
func (s *VersionStore) NextVersion(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history[name]) + 1
}

// Commit appends (version, filename) to name's history. The first commit
// of an unknown name creates the asset.
func (s *VersionStore) Commit(name string, version int, filename string) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := len(s.history[name])
	if version != current+1 {
		return fmt.Errorf("%w: %s has v%d, got v%d", ErrNonContiguousVersion, name, current, version)
	}
	if owner, ok := s.owners[filename]; ok {
		return fmt.Errorf("%w: %s (owned by %s)", ErrDuplicateFilename, filename, owner)
	}

	if current == 0 {
		s.order = append(s.order, name)
	}
	s.history[name] = append(s.history[name], Version{
		Number:    version,
		Filename:  filename,
		CreatedAt: s.now(),
	})
	s.owners[filename] = name
	return nil
}

// Latest returns the highest committed version of name.
func (s *VersionStore) Latest(name string) (Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.history[name]
	if len(h) == 0 {
		return Version{}, false
	}
	return h[len(h)-1], true
}

// ListAll summarizes every asset.
func (s *VersionStore) ListAll() map[string]Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Summary, len(s.history))
	for name, h := range s.history {
		last := h[len(h)-1]
		out[name] = Summary{
			Count:          len(h),
			LatestVersion:  last.Number,
			LatestFilename: last.Filename,
		}
	}
	return out
}

// History returns a copy of name's history, oldest first.
func (s *VersionStore) History(name string) []Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Version(nil), s.history[name]...)
}

// Names returns asset names in creation order.
func (s *VersionStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Len is the number of assets with at least one version.
func (s *VersionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// OwnerOf returns the asset a committed filename belongs to.
func (s *VersionStore) OwnerOf(filename string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.owners[filename]
	return name, ok
}

// LatestOverall returns the most recently committed version across assets.
func (s *VersionStore) LatestOverall() (string, Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		bestName string
		best     Version
		found    bool
	)
	for _, name := range s.order {
		h := s.history[name]
		last := h[len(h)-1]
		if !found || !last.CreatedAt.Before(best.CreatedAt) {
			bestName, best, found = name, last, true
		}
	}
	return bestName, best, found
}

// Describe renders the listing shown to users.
func (s *VersionStore) Describe() string {
	names := s.Names()
	if len(names) == 0 {
		return "No renovation renderings have been created yet."
	}

	all := s.ListAll()
	var b strings.Builder
	b.WriteString("Current renovation renderings:")
	for _, name := range names {
		sum := all[name]
		fmt.Fprintf(&b, "\n  • %s: %d version(s), latest is v%d (%s)",
			name, sum.Count, sum.LatestVersion, sum.LatestFilename)
	}
	return b.String()
}

func (s *VersionStore) lockFor(name string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[name]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[name] = l
	}
	return l
}

// Reservation holds the right to commit the next version of one asset.
// Other reservations of the same asset block until it is committed or
// released.
type Reservation struct {
	Asset    string
	Version  int
	Filename string

	store *VersionStore
	lock  chan struct{}
	mu    sync.Mutex
	done  bool
}

// Reserve waits for exclusive allocation rights on name and returns the
// version and filename the caller will commit. Call Commit on success or
// Release on failure; Release after Commit is a no-op so it can be
// deferred.
func (s *VersionStore) Reserve(ctx context.Context, name, ext string) (*Reservation, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	lock := s.lockFor(name)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	v := s.NextVersion(name)
	return &Reservation{
		Asset:    name,
		Version:  v,
		Filename: Filename(name, v, ext),
		store:    s,
		lock:     lock,
	}, nil
}

// Commit appends the reserved version and releases the reservation.
func (r *Reservation) Commit() error {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return errReservationClosed
	}
	r.done = true
	r.mu.Unlock()

	defer func() { <-r.lock }()
	return r.store.Commit(r.Asset, r.Version, r.Filename)
}

// Release abandons the reservation without touching history.
func (r *Reservation) Release() {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	r.mu.Unlock()

	<-r.lock
}

// Append allocates and commits the next version of name in one step.
func (s *VersionStore) Append(ctx context.Context, name, ext string) (Version, error) {
	res, err := s.Reserve(ctx, name, ext)
	if err != nil {
		return Version{}, err
	}
	if err := res.Commit(); err != nil {
		return Version{}, err
	}
	v, _ := s.Latest(name)
	return v, nil
}

// Snapshot is the serializable form of a VersionStore.
type Snapshot struct {
	Order   []string             `json:"order"`
	History map[string][]Version `json:"history"`
}

// Snapshot copies the store's state.
func (s *VersionStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Order:   append([]string(nil), s.order...),
		History: make(map[string][]Version, len(s.history)),
	}
	for name, h := range s.history {
		snap.History[name] = append([]Version(nil), h...)
	}
	return snap
}

// Restore replaces the store's state with snap after validating that
// every history is contiguous from 1 and filenames are unique.
func (s *VersionStore) Restore(snap Snapshot) error {
	owners := make(map[string]string)
	order := append([]string(nil), snap.Order...)

	seen := make(map[string]bool, len(order))
	for _, name := range order {
		seen[name] = true
	}
	// Tolerate snapshots written without an order list.
	var extra []string
	for name := range snap.History {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	history := make(map[string][]Version, len(snap.History))
	for _, name := range order {
		h := snap.History[name]
		if len(h) == 0 {
			return fmt.Errorf("restore %s: empty history", name)
		}
		if err := validateName(name); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		for i, v := range h {
			if v.Number != i+1 {
				return fmt.Errorf("restore %s: %w at index %d (v%d)", name, ErrNonContiguousVersion, i, v.Number)
			}
			if owner, dup := owners[v.Filename]; dup {
				return fmt.Errorf("restore %s: %w: %s (owned by %s)", name, ErrDuplicateFilename, v.Filename, owner)
			}
			owners[v.Filename] = name
		}
		history[name] = append([]Version(nil), h...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = history
	s.order = order
	s.owners = owners
	return nil
}
