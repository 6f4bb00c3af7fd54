package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalFiles is the on-disk artifacts directory. Renderings are always
// written here, whatever the Store backend.
type LocalFiles struct {
	Dir string
}

// NewLocalFiles creates dir if needed.
func NewLocalFiles(dir string) (*LocalFiles, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return &LocalFiles{Dir: dir}, nil
}

func (l *LocalFiles) path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("invalid artifact filename %q", filename)
	}
	return filepath.Join(l.Dir, filename), nil
}

// Path returns the absolute location of filename.
func (l *LocalFiles) Path(filename string) string {
	p, err := l.path(filename)
	if err != nil {
		return ""
	}
	return p
}

// Write stores data as filename via a temp file and rename.
func (l *LocalFiles) Write(filename string, data []byte) (string, error) {
	p, err := l.path(filename)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(l.Dir, ".tmp-"+filename+"-*")
	if err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	return p, nil
}

// Read loads filename. Missing files return an error satisfying
// errors.Is(err, ErrNotFound).
func (l *LocalFiles) Read(filename string) ([]byte, error) {
	p, err := l.path(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", filename, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return data, nil
}
