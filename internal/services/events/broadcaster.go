package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
	"github.com/redis/go-redis/v9"
)

// Broadcaster publishes bridge replies to Redis Pub/Sub so that whichever
// replica holds a session's SSE stream can deliver them.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new reply broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel returns the Pub/Sub channel carrying replies for one session
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("iwc-replies:%s", sessionID.String())
}

// Publish sends env to the session's channel
func (b *Broadcaster) Publish(ctx context.Context, sessionID uuid.UUID, env iwc.Envelope) error {
	channel := Channel(sessionID)

	data, err := json.Marshal(env)
	if err != nil {
		b.logger.Error("Failed to marshal envelope", "error", err, "action", env.Action)
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish envelope", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish envelope: %w", err)
	}

	b.logger.Debug("Envelope published",
		"channel", channel,
		"action", env.Action)

	return nil
}

// Subscribe opens a subscription to the session's channel. The caller
// must Close it.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(sessionID))
}

// Decode parses a Pub/Sub payload back into an envelope
func Decode(payload string) (iwc.Envelope, error) {
	return iwc.Decode([]byte(payload))
}
