package pubsub

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func TestRedisPublisherRoundtrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping redis integration test")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	const channel = "storefront:events:test"
	sub := client.Subscribe(ctx, channel)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(client, channel)
	e := domain.NewEvent(domain.EventOrderPlaced, "42")
	require.NoError(t, pub.Publish(ctx, e))

	select {
	case msg := <-sub.Channel():
		var got domain.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, e.ID, got.ID)
		assert.Equal(t, domain.EventOrderPlaced, got.Type)
		assert.Equal(t, "42", got.EntityID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}
