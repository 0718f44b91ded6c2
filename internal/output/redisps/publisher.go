package redisps

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"cabwatch/internal/logger"
	"cabwatch/pkg/models"
)

// Config configures the Redis pub/sub publisher.
type Config struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// Publisher fans engine events out over Redis pub/sub. Each zone gets its
// own channel (prefix:zone:<id>) plus one broadcast channel (prefix:all);
// Redis owns subscriber membership, so zone joins are free to race with
// concurrent position updates.
type Publisher struct {
	client *redis.Client
	prefix string
}

// NewPublisher connects the publisher and verifies the Redis endpoint.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = "cabwatch"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis publisher: %w", err)
	}

	return &Publisher{client: client, prefix: cfg.ChannelPrefix}, nil
}

// PublishZone sends an event to one zone's channel.
func (p *Publisher) PublishZone(zoneID string, evt models.Event) {
	p.publish(p.prefix+":zone:"+zoneID, evt)
}

// PublishGlobal sends an event to the broadcast channel.
func (p *Publisher) PublishGlobal(evt models.Event) {
	p.publish(p.prefix+":all", evt)
}

func (p *Publisher) publish(channel string, evt models.Event) {
	raw, err := json.Marshal(evt)
	if err != nil {
		logger.Errorf("Failed to encode %s event: %v", evt.Type, err)
		return
	}
	if err := p.client.Publish(context.Background(), channel, raw).Err(); err != nil {
		logger.Errorf("Failed to publish %s to %s: %v", evt.Type, channel, err)
	}
}

// Close closes the publisher connection.
func (p *Publisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
