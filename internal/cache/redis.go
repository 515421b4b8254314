// Package cache publishes finished matches to a Redis list for downstream
// consumers such as stats workers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"duel-game-bot/internal/config"
	"duel-game-bot/internal/model"
)

// DefaultQueueName is the Redis list finished matches are pushed to.
const DefaultQueueName = "duel_matches"

// MatchPublisher pushes match records to a Redis list as JSON.
type MatchPublisher struct {
	rdb   redis.Cmdable
	queue string
}

// NewMatchPublisher wraps an existing client. An empty queue uses
// DefaultQueueName.
func NewMatchPublisher(rdb redis.Cmdable, queue string) *MatchPublisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &MatchPublisher{rdb: rdb, queue: queue}
}

// Connect creates a client from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Record serializes m and appends it to the queue.
func (p *MatchPublisher) Record(ctx context.Context, m *model.MatchRecord) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal match record: %w", err)
	}

	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Queue returns the list name.
func (p *MatchPublisher) Queue() string { return p.queue }
