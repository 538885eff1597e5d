package autonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a read-through layer over another Store. Configs are small
// and read on every decision, so a short TTL keeps hot pairs off the
// database while preserving last-write-wins semantics across processes.
type RedisStore struct {
	rdb  *redis.Client
	next Store
	ttl  time.Duration
}

// NewRedisStore connects to Redis and wraps the given backing store.
// Returns the connection error so the caller can fall back to the backing
// store directly.
func NewRedisStore(addr, password string, db int, next Store) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed (%s): %w", addr, err)
	}

	slog.Info("Redis connected for autonomy config cache", "addr", addr, "db", db)
	return &RedisStore{rdb: rdb, next: next, ttl: 5 * time.Minute}, nil
}

func redisKey(subjectID, process string) string {
	return "autonomy:config:" + subjectID + ":" + process
}

// GetConfig reads through Redis to the backing store.
func (s *RedisStore) GetConfig(ctx context.Context, subjectID, process string) (*Config, error) {
	key := redisKey(subjectID, process)

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cfg Config
		if uerr := json.Unmarshal(raw, &cfg); uerr == nil {
			return &cfg, nil
		}
		// Corrupt entry: drop it and fall through to the backing store.
		s.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		slog.Warn("redis config read failed, falling through", "key", key, "error", err)
	}

	cfg, err := s.next.GetConfig(ctx, subjectID, process)
	if err != nil || cfg == nil {
		return cfg, err
	}

	if payload, merr := json.Marshal(cfg); merr == nil {
		if serr := s.rdb.Set(ctx, key, payload, s.ttl).Err(); serr != nil {
			slog.Warn("redis config write failed", "key", key, "error", serr)
		}
	}
	return cfg, nil
}

// UpsertConfig writes to the backing store first, then refreshes Redis.
func (s *RedisStore) UpsertConfig(ctx context.Context, cfg *Config) error {
	if err := s.next.UpsertConfig(ctx, cfg); err != nil {
		return err
	}

	key := redisKey(cfg.SubjectID, cfg.Process)
	if payload, err := json.Marshal(cfg); err == nil {
		if serr := s.rdb.Set(ctx, key, payload, s.ttl).Err(); serr != nil {
			slog.Warn("redis config refresh failed", "key", key, "error", serr)
		}
	}
	return nil
}

// Close shuts down the Redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

var _ Store = (*RedisStore)(nil)
