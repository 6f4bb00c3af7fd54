// Package artifacts persists rendering and upload bytes outside the local
// artifacts directory. Whether a backend is usable is decided once, when
// the session is set up.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"renoplan/internal/types"
)

// ErrNotFound is returned by Load for unknown filenames.
var ErrNotFound = errors.New("artifact not found")

// Blob is one stored artifact version.
type Blob struct {
	Filename string
	Version  int
	MIMEType string
	Data     []byte
}

// Store saves and loads artifacts. Each Save of a filename creates a new
// artifact version starting at 1; Load returns the latest.
type Store interface {
	Save(ctx context.Context, filename string, data []byte, mimeType string) (int, error)
	Load(ctx context.Context, filename string) (*Blob, error)
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Availability records the setup-time decision about a backend.
type Availability struct {
	Backend   string
	Available bool
	Reason    string
}

func (a Availability) String() string {
	if a.Available {
		return a.Backend + " (available)"
	}
	return fmt.Sprintf("%s (unavailable: %s)", a.Backend, a.Reason)
}

// Unavailable is the Store handed out when no backend could be opened.
// Every call fails with types.ErrPersistenceUnavailable.
type Unavailable struct {
	Reason string
}

func (u Unavailable) err() error {
	if u.Reason == "" {
		return types.ErrPersistenceUnavailable
	}
	return fmt.Errorf("%w: %s", types.ErrPersistenceUnavailable, u.Reason)
}

func (u Unavailable) Save(context.Context, string, []byte, string) (int, error) { return 0, u.err() }
func (u Unavailable) Load(context.Context, string) (*Blob, error)            { return nil, u.err() }
func (u Unavailable) List(context.Context) ([]string, error)                 { return nil, u.err() }
func (u Unavailable) Close() error                                           { return nil }

// MIMEType guesses the image type from the filename, defaulting to PNG.
func MIMEType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	}
	if t := mime.TypeByExtension(ext); strings.HasPrefix(t, "image/") {
		return t
	}
	return "image/png"
}

// Extension maps a MIME type back to a file extension without the dot.
func Extension(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/heic":
		return "heic"
	default:
		return "png"
	}
}

// IsImageFile reports whether filename has an image extension.
func IsImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".webp", ".heic":
		return true
	}
	return false
}
