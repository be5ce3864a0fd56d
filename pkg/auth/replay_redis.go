package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const nonceKeyPrefix = "login:nonce:"

// RedisReplayGuard tracks seen nonces in Redis so multiple replicas
// share one seen set. Each nonce key carries a TTL equal to the replay
// window, giving sliding-window eviction instead of the in-memory
// guard's bulk clear.
type RedisReplayGuard struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisReplayGuard creates a replay guard backed by the given client
func NewRedisReplayGuard(client *redis.Client) *RedisReplayGuard {
	return &RedisReplayGuard{client: client, now: time.Now}
}

// Check validates the timestamp window, then claims the nonce with
// SETNX. A nonce that is already claimed means a replayed request.
func (g *RedisReplayGuard) Check(ctx context.Context, nonce string, timestampMillis int64) error {
	nowMillis := g.now().UnixMilli()
	diff := nowMillis - timestampMillis
	if diff < 0 {
		diff = -diff
	}
	if diff > ReplayWindow.Milliseconds() {
		return ErrTimestampOutOfWindow
	}

	claimed, err := g.client.SetNX(ctx, nonceKeyPrefix+nonce, timestampMillis, ReplayWindow).Result()
	if err != nil {
		return fmt.Errorf("failed to record nonce: %w", err)
	}
	if !claimed {
		return ErrNonceReplayed
	}
	return nil
}
