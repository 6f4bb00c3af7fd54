package session

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renoplan/internal/assets"
	"renoplan/internal/store"
)

func TestNew(t *testing.T) {
	s := New()
	assert.True(t, strings.HasPrefix(s.ID, "sess_"))
	assert.True(t, s.AttachReferences())
	_, ok := s.LastRendering()
	assert.False(t, ok)
	assert.Equal(t, 0, s.Versions.Len())
	assert.NotEqual(t, s.ID, New().ID)
}

func TestRecordRendering(t *testing.T) {
	s := New()
	s.RecordRendering("kitchen", "kitchen_v2.png")

	last, ok := s.LastRendering()
	assert.True(t, ok)
	assert.Equal(t, "kitchen_v2.png", last)
	asset, _ := s.CurrentAsset()
	assert.Equal(t, "kitchen", asset)
}

func newPopulated(t *testing.T) *Session {
	t.Helper()
	ctx := context.Background()
	s := New()
	_, err := s.Versions.Append(ctx, "kitchen", "png")
	require.NoError(t, err)
	v, err := s.Versions.Append(ctx, "kitchen", "png")
	require.NoError(t, err)
	_, err = s.Versions.Append(ctx, "bath", "jpg")
	require.NoError(t, err)

	s.References.Register("room.jpg", assets.CategoryCurrentRoom)
	s.References.RegisterVersion("moodboard.png", assets.CategoryInspiration, 3)
	s.RecordRendering("kitchen", v.Filename)
	s.SetAttachReferences(false)
	s.NextTurn()
	s.NextTurn()
	return s
}

func TestMarshalDecode(t *testing.T) {
	s := newPopulated(t)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 2, got.Turn())
	assert.False(t, got.AttachReferences())
	last, _ := got.LastRendering()
	assert.Equal(t, "kitchen_v2.png", last)

	assert.Equal(t, s.Versions.ListAll(), got.Versions.ListAll())
	assert.Equal(t, s.Versions.Names(), got.Versions.Names())
	assert.Equal(t, s.References.List(), got.References.List())
	assert.Equal(t, 3, got.Versions.NextVersion("kitchen"))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"turn": 1}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"id":"s","versions":{"order":["k"],"history":{"k":[{"version":2,"filename":"k_v2.png"}]}}}`))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	local, err := store.NewLocalStore(filepath.Join(t.TempDir(), "renoplan.db"))
	require.NoError(t, err)
	defer local.Close()

	s := newPopulated(t)
	require.NoError(t, Save(ctx, local, s))

	got, err := Load(ctx, local, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Versions.Describe(), got.Versions.Describe())

	_, err = Load(ctx, local, "sess_missing")
	assert.ErrorIs(t, err, store.ErrSnapshotNotFound)
}
