package rendering

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"renoplan/internal/artifacts"
	"renoplan/internal/logging"
	"renoplan/internal/types"
)

// Loader resolves image filenames to bytes. It looks in the artifact
// store, then the local artifacts directory, then the uploads directory.
type Loader struct {
	Artifacts  artifacts.Store
	Local      *artifacts.LocalFiles
	UploadsDir string
}

// Load returns the image named filename or a *types.MissingImageError.
func (l *Loader) Load(ctx context.Context, filename string) (types.Image, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return types.Image{}, &types.MissingImageError{Name: filename}
	}

	if l.Artifacts != nil {
		blob, err := l.Artifacts.Load(ctx, filename)
		switch {
		case err == nil:
			logging.RenderingDebug("loaded %s from artifact store (v%d)", filename, blob.Version)
			return types.Image{Name: filename, Data: blob.Data, MIMEType: blob.MIMEType}, nil
		case errors.Is(err, artifacts.ErrNotFound), errors.Is(err, types.ErrPersistenceUnavailable):
		default:
			logging.RenderingWarn("artifact load of %s failed, trying files: %v", filename, err)
		}
	}

	if l.Local != nil {
		data, err := l.Local.Read(filename)
		if err == nil {
			return types.Image{Name: filename, Data: data, MIMEType: artifacts.MIMEType(filename)}, nil
		}
		if !errors.Is(err, artifacts.ErrNotFound) {
			logging.RenderingWarn("local read of %s failed: %v", filename, err)
		}
	}

	if l.UploadsDir != "" {
		data, err := os.ReadFile(filepath.Join(l.UploadsDir, filename))
		if err == nil {
			return types.Image{Name: filename, Data: data, MIMEType: artifacts.MIMEType(filename)}, nil
		}
	}

	return types.Image{}, &types.MissingImageError{Name: filename}
}

// LoadAll loads names concurrently, preserving order. The first failure
// cancels the rest.
func (l *Loader) LoadAll(ctx context.Context, names []string) ([]types.Image, error) {
	images := make([]types.Image, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			img, err := l.Load(gctx, name)
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}
