package redis

import (
	"context"
	"fmt"

	goredis "github.com/go-redis/redis/v8"

	"okx-analysis/internal/model"
)

const latestHashKey = "signal:latest"

// Publisher fans out serialized reports on Redis PubSub and keeps the latest
// payload per channel in a hash for late subscribers.
type Publisher struct {
	client *goredis.Client
}

var _ model.ReportPublisher = (*Publisher)(nil)

// NewPublisher creates a Publisher on client.
func NewPublisher(client *goredis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish writes payload to the latest hash and publishes it in one
// pipeline round trip.
func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	pipe := p.client.Pipeline()
	pipe.HSet(ctx, latestHashKey, channel, payload)
	pipe.Publish(ctx, channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Latest returns the last payload published on channel, or nil if none.
func (p *Publisher) Latest(ctx context.Context, channel string) ([]byte, error) {
	b, err := p.client.HGet(ctx, latestHashKey, channel).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hget %s: %w", channel, err)
	}
	return b, nil
}
