package redis

import (
	"context"
	"fmt"
	"time"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisConnectionRegistry keeps the streamer -> connections mapping in
// Redis. The forward mapping is a sorted set scored by registration
// time so Members preserves registration order; a reverse index key
// per handle records the owning streamer so Deregister never scans.
type RedisConnectionRegistry struct {
	client *redis.Client
}

func NewRedisConnectionRegistry(client *redis.Client) ports.ConnectionRegistry {
	return &RedisConnectionRegistry{client: client}
}

func (r *RedisConnectionRegistry) streamerKey(streamer domain.StreamerID) string {
	return fmt.Sprintf("chatpulse:streamer:%s:conns", streamer)
}

func (r *RedisConnectionRegistry) ownerKey(handle domain.ConnectionHandle) string {
	return fmt.Sprintf("chatpulse:conn:%s", handle)
}

func (r *RedisConnectionRegistry) Register(ctx context.Context, streamer domain.StreamerID, handle domain.ConnectionHandle) error {
	// ZADD NX keeps the original score on re-registration, so a handle
	// never appears twice and keeps its position. The reverse index is
	// written in the same transaction; SETNX pins the first owner, and
	// the owning set of a live handle never changes afterwards.
	pipe := r.client.TxPipeline()
	pipe.ZAddNX(ctx, r.streamerKey(streamer), redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: string(handle),
	})
	pipe.SetNX(ctx, r.ownerKey(handle), string(streamer), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to register connection in Redis: %w", err)
	}
	return nil
}

func (r *RedisConnectionRegistry) Deregister(ctx context.Context, handle domain.ConnectionHandle) error {
	owner, err := r.client.Get(ctx, r.ownerKey(handle)).Result()
	if err == redis.Nil {
		// Unknown handle: close events cannot be meaningfully rejected.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up connection owner in Redis: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, r.streamerKey(domain.StreamerID(owner)), string(handle))
	pipe.Del(ctx, r.ownerKey(handle))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to deregister connection in Redis: %w", err)
	}
	return nil
}

func (r *RedisConnectionRegistry) Members(ctx context.Context, streamer domain.StreamerID) ([]domain.ConnectionHandle, error) {
	members, err := r.client.ZRange(ctx, r.streamerKey(streamer), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get streamer connections from Redis: %w", err)
	}

	handles := make([]domain.ConnectionHandle, 0, len(members))
	for _, m := range members {
		handles = append(handles, domain.ConnectionHandle(m))
	}
	return handles, nil
}
