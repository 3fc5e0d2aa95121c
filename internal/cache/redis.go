// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "bluff_actions"

// publishTimeout bounds a single fire-and-forget push.
const publishTimeout = 2 * time.Second

// GameActionRecord holds the minimal info needed by the historian.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	LobbyID       uuid.UUID              `json:"lobby_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       uuid.UUID              `json:"actor_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Connect opens a Redis client and checks it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publisher pushes game action records onto a Redis list for the historian.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

func NewPublisher(rdb *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{rdb: rdb, queue: queue}
}

// PublishGameAction serializes the given record to JSON, then pushes it to the Redis queue.
func (p *Publisher) PublishGameAction(ctx context.Context, record GameActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Record publishes asynchronously so game processing never waits on Redis.
func (p *Publisher) Record(record GameActionRecord) {
	go func(rec GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.PublishGameAction(ctx, rec); err != nil {
			log.WithField("game", rec.GameID).Errorf("publishing action %d: %v", rec.ActionIndex, err)
		}
	}(record)
}

// Consumer pops game action records off the queue.
type Consumer struct {
	rdb   *redis.Client
	queue string
}

func NewConsumer(rdb *redis.Client, queue string) *Consumer {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Consumer{rdb: rdb, queue: queue}
}

// Pop blocks up to timeout for the next record. It reports false when the queue stayed empty.
// Records that fail to decode are logged and skipped.
func (c *Consumer) Pop(ctx context.Context, timeout time.Duration) (GameActionRecord, bool, error) {
	var rec GameActionRecord
	res, err := c.rdb.BLPop(ctx, timeout, c.queue).Result()
	if errors.Is(err, redis.Nil) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("BLPop %s: %w", c.queue, err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return rec, false, nil
	}
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		log.WithField("queue", c.queue).Warnf("invalid action record: %v", err)
		return rec, false, nil
	}
	return rec, true, nil
}
