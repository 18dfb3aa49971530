//go:build integration

package events_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/forgecore/pkg/events"
)

func TestRedisPublisher_RoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	pub := events.NewRedisPublisher(client, "forgecore:test:"+t.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan events.Event, 1)
	go func() {
		_ = pub.Subscribe(ctx, func(_ context.Context, e events.Event) error {
			got <- e
			return nil
		})
	}()

	// Give the subscription time to register.
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, pub.Channel()).Result()
		return err == nil && n[pub.Channel()] > 0
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, pub.Publish(ctx, events.Event{Kind: events.RequestCompleted, RequestID: "r1", Status: 201}))

	select {
	case e := <-got:
		assert.Equal(t, events.RequestCompleted, e.Kind)
		assert.Equal(t, "r1", e.RequestID)
		assert.Equal(t, 201, e.Status)
	case <-ctx.Done():
		t.Fatal("event not received")
	}
}
