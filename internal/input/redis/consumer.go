package redis

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// DefaultQueue is the list gateway nodes push position reports onto.
const DefaultQueue = "cab_positions"

// DefaultBlockTimeout bounds how long an idle Pop blocks before returning
// empty, so shutdown is never stuck behind a quiet queue.
const DefaultBlockTimeout = 5 * time.Second

// Config configures the Redis position consumer.
type Config struct {
	Addr         string
	Password     string
	DB           int
	Queue        string
	BlockTimeout time.Duration
}

// Consumer pops inbound position reports off a Redis list. Gateway nodes
// push one JSON document per report.
type Consumer struct {
	client       *redis.Client
	queue        string
	blockTimeout time.Duration
}

// NewConsumer creates a consumer for the position queue. Zero-value config
// fields fall back to the gateway defaults.
func NewConsumer(cfg Config) (*Consumer, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Consumer{
		client:       client,
		queue:        cfg.Queue,
		blockTimeout: cfg.BlockTimeout,
	}, nil
}

// Pop blocks for up to the configured timeout and returns one raw position
// report. A nil payload with a nil error means the queue stayed empty or
// the popped frame was blank; callers poll again.
func (c *Consumer) Pop(ctx context.Context) ([]byte, error) {
	res, err := c.client.BLPop(ctx, c.blockTimeout, c.queue).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 || res[1] == "" {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// Close closes the consumer.
func (c *Consumer) Close() error {
	return c.client.Close()
}
