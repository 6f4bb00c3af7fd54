// Package uploads brings user photos into a session: it copies them into
// the uploads directory, mirrors them to the artifact store and registers
// them as references.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"renoplan/internal/artifacts"
	"renoplan/internal/assets"
	"renoplan/internal/logging"
	"renoplan/internal/session"
	"renoplan/internal/types"
)

// ErrNotImage is returned for files without a supported image extension.
var ErrNotImage = errors.New("not an image file")

// Importer registers uploaded images with a session.
type Importer struct {
	dir   string
	store artifacts.Store
}

// NewImporter creates dir if needed. A nil store keeps uploads local.
func NewImporter(dir string, store artifacts.Store) (*Importer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	if store == nil {
		store = artifacts.Unavailable{Reason: "not configured"}
	}
	return &Importer{dir: dir, store: store}, nil
}

// Dir is the uploads directory.
func (im *Importer) Dir() string { return im.dir }

// Import copies the image at src into the uploads directory and registers
// it under its base name. An empty category means current_room.
func (im *Importer) Import(ctx context.Context, sess *session.Session, src string, category assets.Category) (assets.Reference, error) {
	name := filepath.Base(src)
	if !artifacts.IsImageFile(name) {
		return assets.Reference{}, fmt.Errorf("import %s: %w", name, ErrNotImage)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return assets.Reference{}, fmt.Errorf("import %s: %w", name, err)
	}

	dst := filepath.Join(im.dir, name)
	if mustAbs(src) != mustAbs(dst) {
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return assets.Reference{}, fmt.Errorf("copy %s: %w", name, err)
		}
	}
	return im.register(ctx, sess, name, data, category), nil
}

// Adopt registers a file that is already in the uploads directory.
func (im *Importer) Adopt(ctx context.Context, sess *session.Session, name string, category assets.Category) (assets.Reference, error) {
	if name != filepath.Base(name) || !artifacts.IsImageFile(name) {
		return assets.Reference{}, fmt.Errorf("adopt %s: %w", name, ErrNotImage)
	}
	data, err := os.ReadFile(filepath.Join(im.dir, name))
	if err != nil {
		return assets.Reference{}, fmt.Errorf("adopt %s: %w", name, err)
	}
	return im.register(ctx, sess, name, data, category), nil
}

func (im *Importer) register(ctx context.Context, sess *session.Session, name string, data []byte, category assets.Category) assets.Reference {
	if category == "" {
		category = assets.CategoryCurrentRoom
	}

	version, err := im.store.Save(ctx, name, data, artifacts.MIMEType(name))
	switch {
	case err == nil:
	case errors.Is(err, types.ErrPersistenceUnavailable):
		logging.UploadsWarn("artifact storage unavailable, %s kept locally", name)
	default:
		logging.UploadsWarn("failed to save %s to artifact storage: %v", name, err)
	}

	sess.References.RegisterVersion(name, category, version)
	sess.SetAttachReferences(true)
	logging.Uploads("registered %s as %s (artifact v%d)", name, category, version)

	cat, _ := sess.References.CategoryOf(name)
	return assets.Reference{Filename: name, Category: cat, ArtifactVersion: version}
}

// Handler returns a watcher Handler that adopts files sess has not seen.
func (im *Importer) Handler(sess *session.Session) Handler {
	return func(ctx context.Context, name string) {
		if sess.References.Has(name) {
			return
		}
		if _, err := im.Adopt(ctx, sess, name, ""); err != nil {
			logging.UploadsWarn("failed to adopt %s: %v", name, err)
		}
	}
}

func mustAbs(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
