package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisRoleStore persists resolved role records as per-pair JSON keys.
// Records are an advisory cache of the platform relationship, so plain
// SET (last write wins) is the intended concurrency behavior.
type RedisRoleStore struct {
	client *redis.Client
}

func NewRedisRoleStore(client *redis.Client) ports.RoleStore {
	return &RedisRoleStore{client: client}
}

func (r *RedisRoleStore) roleKey(identity domain.Identity, streamer domain.StreamerID) string {
	return fmt.Sprintf("chatpulse:role:%s:%s", identity, streamer)
}

func (r *RedisRoleStore) Get(ctx context.Context, identity domain.Identity, streamer domain.StreamerID) (*domain.RoleRecord, error) {
	data, err := r.client.Get(ctx, r.roleKey(identity, streamer)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role record from Redis: %w", err)
	}

	var record domain.RoleRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role record: %w", err)
	}
	return &record, nil
}

func (r *RedisRoleStore) Put(ctx context.Context, record *domain.RoleRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal role record: %w", err)
	}

	key := r.roleKey(record.Identity, record.Streamer)
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set role record in Redis: %w", err)
	}
	return nil
}
