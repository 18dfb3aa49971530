package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the channel used when none is configured.
const DefaultRedisChannel = "forgecore:events"

// RedisPublisher publishes JSON-encoded events to a Redis pub/sub channel.
// Each call performs a network round trip; wrap it with Async before handing
// it to a kernel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher creates a publisher for the given channel.
// An empty channel falls back to DefaultRedisChannel.
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Channel returns the pub/sub channel name.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Publish encodes e and publishes it.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	if e.Err != nil && e.Error == "" {
		e.Error = e.Err.Error()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// Subscribe forwards events from the channel to fn until ctx is done.
// Malformed payloads are skipped.
func (p *RedisPublisher) Subscribe(ctx context.Context, fn Subscriber) error {
	sub := p.client.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				continue
			}
			if err := fn(ctx, e); err != nil {
				return err
			}
		}
	}
}
