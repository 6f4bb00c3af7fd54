package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"renoplan/internal/config"
)

const (
	defaultDialTimeout  = 3 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

// RedisSnapshots keeps session snapshots in redis with a TTL.
type RedisSnapshots struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisConnection builds a client from config and pings it.
func NewRedisConnection(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   1,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewRedisSnapshots wraps client. A zero ttl keeps snapshots forever.
func NewRedisSnapshots(client *redis.Client, prefix string, ttl time.Duration) *RedisSnapshots {
	return &RedisSnapshots{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisSnapshots) key(sessionID string) string {
	return r.prefix + sessionID
}

// SaveSnapshot stores data and refreshes the TTL.
func (r *RedisSnapshots) SaveSnapshot(ctx context.Context, sessionID string, data []byte) error {
	if err := r.client.Set(ctx, r.key(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot.
func (r *RedisSnapshots) LoadSnapshot(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", sessionID, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// DeleteSnapshot removes a snapshot.
func (r *RedisSnapshots) DeleteSnapshot(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Exists reports whether a snapshot is stored.
func (r *RedisSnapshots) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

// Close closes the connection.
func (r *RedisSnapshots) Close() error {
	return r.client.Close()
}
