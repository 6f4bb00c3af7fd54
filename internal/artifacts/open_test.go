package artifacts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renoplan/internal/config"
	"renoplan/internal/types"
)

func TestOpen_SQLite(t *testing.T) {
	ws := t.TempDir()
	cfg := config.DefaultConfig().Artifacts

	s, avail := Open(context.Background(), cfg, ws)
	defer s.Close()

	assert.True(t, avail.Available)
	assert.Equal(t, "sqlite", avail.Backend)
	_, ok := s.(*SQLStore)
	assert.True(t, ok)
}

func TestOpen_None(t *testing.T) {
	s, avail := Open(context.Background(), config.ArtifactsConfig{Backend: "none"}, t.TempDir())
	assert.False(t, avail.Available)

	_, err := s.Save(context.Background(), "a.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, types.ErrPersistenceUnavailable)
	assert.Contains(t, avail.String(), "unavailable")
}

func TestOpen_UnreachableS3(t *testing.T) {
	old := probeTimeout
	probeTimeout = 2 * time.Second
	defer func() { probeTimeout = old }()

	cfg := config.ArtifactsConfig{
		Backend: "s3",
		S3: config.S3Config{
			Endpoint:  "127.0.0.1:1",
			AccessKey: "minio",
			SecretKey: "minio123",
			Bucket:    "renoplan-artifacts",
		},
	}
	s, avail := Open(context.Background(), cfg, t.TempDir())
	require.NotNil(t, s)
	assert.False(t, avail.Available)
	assert.Equal(t, "s3", avail.Backend)

	_, err := s.Load(context.Background(), "kitchen_v1.png")
	assert.ErrorIs(t, err, types.ErrPersistenceUnavailable)
}

func TestS3VersionKeys(t *testing.T) {
	dir := "renderings/kitchen_v1.png/"
	key := versionKey(dir, 12)
	assert.Equal(t, "renderings/kitchen_v1.png/000012", key)

	n, ok := parseVersionKey(dir, key)
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = parseVersionKey(dir, "renderings/other.png/000001")
	assert.False(t, ok)
	_, ok = parseVersionKey(dir, dir+"nested/000001")
	assert.False(t, ok)
	_, ok = parseVersionKey(dir, dir+"abc")
	assert.False(t, ok)
}
