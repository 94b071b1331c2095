package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSinkPublishesJSON(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, "claims:ledger:events")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	sink := NewRedisSink(rdb, "claims:ledger:events")
	require.NoError(t, sink.PublishBatch(ctx, []Event{
		NewEvent(TypeClaimStatusUpdated, "C1", "trace-1", map[string]string{"status": "Approved"}),
		NewEvent(TypeClaimDeleted, "C2", "trace-2", nil),
	}))

	var received []Event
	for len(received) < 2 {
		select {
		case msg := <-sub.Channel():
			var e Event
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &e))
			received = append(received, e)
		case <-ctx.Done():
			t.Fatal("timed out waiting for events")
		}
	}

	assert.Equal(t, TypeClaimStatusUpdated, received[0].Type)
	assert.Equal(t, "C1", received[0].EntityID)
	assert.Equal(t, "trace-1", received[0].TraceID)
	assert.Equal(t, TypeClaimDeleted, received[1].Type)
}

func TestRedisSinkReportsConnectionErrors(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	err = NewRedisSink(rdb, "claims:ledger:events").PublishBatch(context.Background(), []Event{NewEvent(TypeClaimCreated, "C1", "", nil)})
	assert.Error(t, err)
}
