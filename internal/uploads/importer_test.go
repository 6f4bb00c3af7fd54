package uploads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"renoplan/internal/artifacts"
	"renoplan/internal/assets"
	"renoplan/internal/session"
	"renoplan/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writePhoto(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("photo:"+name), 0644))
	return p
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sqlStore, err := artifacts.OpenSQL(store.DriverPureGo, filepath.Join(dir, "artifacts.db"))
	require.NoError(t, err)
	defer sqlStore.Close()

	im, err := NewImporter(filepath.Join(dir, "uploads"), sqlStore)
	require.NoError(t, err)

	sess := session.New()
	sess.SetAttachReferences(false)

	src := writePhoto(t, t.TempDir(), "kitchen.jpg")
	ref, err := im.Import(ctx, sess, src, "")
	require.NoError(t, err)
	assert.Equal(t, "kitchen.jpg", ref.Filename)
	assert.Equal(t, assets.CategoryCurrentRoom, ref.Category)
	assert.Equal(t, 1, ref.ArtifactVersion)
	assert.True(t, sess.AttachReferences(), "a new upload re-enables attachments")
	assert.FileExists(t, filepath.Join(im.Dir(), "kitchen.jpg"))

	blob, err := sqlStore.Load(ctx, "kitchen.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", blob.MIMEType)

	// Re-import updates the category in place.
	ref, err = im.Import(ctx, sess, src, assets.CategoryInspiration)
	require.NoError(t, err)
	assert.Equal(t, assets.CategoryInspiration, ref.Category)
	assert.Equal(t, 2, ref.ArtifactVersion)
	assert.Equal(t, 1, sess.References.Len())
}

func TestImporter_RejectsNonImages(t *testing.T) {
	im, err := NewImporter(t.TempDir(), nil)
	require.NoError(t, err)

	src := writePhoto(t, t.TempDir(), "notes.txt")
	_, err = im.Import(context.Background(), session.New(), src, "")
	assert.True(t, errors.Is(err, ErrNotImage))

	_, err = im.Adopt(context.Background(), session.New(), "../kitchen.jpg", "")
	assert.True(t, errors.Is(err, ErrNotImage))
}

func TestImporter_WithoutArtifactStore(t *testing.T) {
	im, err := NewImporter(t.TempDir(), nil)
	require.NoError(t, err)
	sess := session.New()

	writePhoto(t, im.Dir(), "bath.png")
	ref, err := im.Adopt(context.Background(), sess, "bath.png", assets.CategoryReference)
	require.NoError(t, err)
	assert.Equal(t, 0, ref.ArtifactVersion)

	cat, ok := sess.References.CategoryOf("bath.png")
	require.True(t, ok)
	assert.Equal(t, assets.CategoryReference, cat)
}

func TestImporter_Handler(t *testing.T) {
	im, err := NewImporter(t.TempDir(), nil)
	require.NoError(t, err)
	sess := session.New()
	sess.References.Register("known.png", assets.CategoryInspiration)

	writePhoto(t, im.Dir(), "known.png")
	writePhoto(t, im.Dir(), "new.jpg")
	h := im.Handler(sess)
	h(context.Background(), "known.png")
	h(context.Background(), "new.jpg")
	h(context.Background(), "missing.jpg")

	cat, _ := sess.References.CategoryOf("known.png")
	assert.Equal(t, assets.CategoryInspiration, cat)
	cat, _ = sess.References.CategoryOf("new.jpg")
	assert.Equal(t, assets.CategoryCurrentRoom, cat)
	assert.False(t, sess.References.Has("missing.jpg"))
}
