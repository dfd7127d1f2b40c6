package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisService owns the Redis client shared by the reply broadcaster and
// the SSE outbox.
type RedisService struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisService implements PubSub interface
var _ PubSub = (*RedisService)(nil)

// NewRedisService creates a Redis service from a redis:// URL or a bare host:port
func NewRedisService(redisURL string, logger *slog.Logger) *RedisService {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		// Accept plain host:port like the docker-compose default
		opt = &redis.Options{Addr: redisURL}
	}

	return &RedisService{
		client: redis.NewClient(opt),
		logger: logger,
	}
}

func (r *RedisService) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Debug("Redis ping successful", "result", cmd.Val())
	return nil
}

func (r *RedisService) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisService) GetClient() *redis.Client {
	return r.client
}

func (r *RedisService) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}
