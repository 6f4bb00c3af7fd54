package store

import (
	"context"
	"time"

	"renoplan/internal/config"
	"renoplan/internal/logging"
)

// SnapshotStore saves serialized session state.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, sessionID string, data []byte) error
	LoadSnapshot(ctx context.Context, sessionID string) ([]byte, error)
}

// OpenSnapshots picks the snapshot backend for cfg. Redis is used when
// configured and reachable; otherwise snapshots live in local.
func OpenSnapshots(ctx context.Context, cfg config.SessionsConfig, ttl time.Duration, local *LocalStore) (SnapshotStore, func() error) {
	if cfg.Backend != "redis" {
		return local, func() error { return nil }
	}
	client, err := NewRedisConnection(ctx, cfg.Redis)
	if err != nil {
		logging.StoreWarn("redis unavailable, keeping session snapshots in sqlite: %v", err)
		return local, func() error { return nil }
	}
	r := NewRedisSnapshots(client, cfg.Redis.KeyPrefix, ttl)
	logging.Store("session snapshots in redis at %s", cfg.Redis.Addr)
	return r, r.Close
}
