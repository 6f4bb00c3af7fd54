package uploads

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu    sync.Mutex
	names []string
}

func (c *collector) handle(_ context.Context, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
}

func (c *collector) got() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

func TestWatcher_DeliversImages(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}
	w, err := NewWatcher(dir, c.handle)
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kitchen.jpg"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kitchen.jpg"), []byte("ab"), 0644))

	require.Eventually(t, func() bool { return len(c.got()) == 1 }, 3*time.Second, 20*time.Millisecond)
	// Settled writes to one file are delivered once.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []string{"kitchen.jpg"}, c.got())

	stats := w.Stats()
	assert.Equal(t, 1, stats.Delivered)
	assert.Equal(t, "kitchen.jpg", stats.LastFile)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), func(context.Context, string) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), func(context.Context, string) {})
	require.NoError(t, err)
	w.Stop()
}
