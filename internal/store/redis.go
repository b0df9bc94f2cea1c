package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores the whole table as one JSON document under a single key,
// so a replace is a single atomic SET.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	return &RedisBackend{client: client, key: key}
}

func (r *RedisBackend) Name() string { return "redis" }

// Ensure initializes the key with an empty table when absent.
func (r *RedisBackend) Ensure(ctx context.Context) error {
	if err := r.client.SetNX(ctx, r.key, "[]", 0).Err(); err != nil {
		return fmt.Errorf("init key %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisBackend) ReadAll(ctx context.Context) ([]Row, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.key, err)
	}
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key, err)
	}
	return rows, nil
}

func (r *RedisBackend) ReplaceAll(ctx context.Context, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisBackend) Close() error { return r.client.Close() }
