package cache

import (
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewIdempotencyStore returns a redis-backed store when a client is given and
// falls back to the in-memory store otherwise.
func NewIdempotencyStore(client *redis.Client, logger *zap.Logger) shared.IdempotencyStore {
	if client != nil {
		logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(client, DefaultKeyPrefix)
	}
	logger.Warn("Redis disabled, using in-memory idempotency store; " +
		"Idempotency-Key replays are only detected per instance")
	return NewInMemoryIdempotencyStore(0)
}
