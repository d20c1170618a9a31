// internal/journal/redis.go
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the session records are pushed to.
const DefaultQueueName = "bombparty_session_events"

// RedisPublisher pushes records onto a Redis list, oldest first.
type RedisPublisher struct {
	rdb   *redis.Client
	queue string
}

// ConnectRedis opens a client for addr/db and checks it answers PING.
func ConnectRedis(ctx context.Context, addr string, db int, queue string) (*RedisPublisher, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &RedisPublisher{rdb: rdb, queue: queue}, nil
}

// Queue is the name of the list records are pushed to.
func (p *RedisPublisher) Queue() string {
	return p.queue
}

// Publish serializes the record to JSON, then pushes it to the queue.
func (p *RedisPublisher) Publish(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal Record: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Close releases the Redis client.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
