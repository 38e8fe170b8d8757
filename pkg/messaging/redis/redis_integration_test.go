//go:build integration

package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/jwalitptl/clinic-api/pkg/messaging"
)

func TestRedisBrokerPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	logger := zerolog.Nop()
	broker := NewWithClient(redis.NewClient(opts), &logger)
	defer broker.Close()

	received, err := broker.Subscribe(ctx, messaging.ChannelVisitBooked)
	require.NoError(t, err)

	msg := messaging.Message{Type: "visit.booked", OccurredAt: time.Now().UTC(), Payload: map[string]string{"visit_id": "v-1"}}
	require.NoError(t, broker.Publish(ctx, messaging.ChannelVisitBooked, msg))

	select {
	case raw := <-received:
		var got messaging.Message
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "visit.booked", got.Type)
		assert.Equal(t, map[string]interface{}{"visit_id": "v-1"}, got.Payload)
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}
