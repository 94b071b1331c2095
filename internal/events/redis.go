package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSink публикует события в канал Pub/Sub одной пачкой через pipeline.
type RedisSink struct {
	rdb     redis.UniversalClient
	channel string
}

func NewRedisSink(rdb redis.UniversalClient, channel string) *RedisSink {
	return &RedisSink{rdb: rdb, channel: channel}
}

func (s *RedisSink) PublishBatch(ctx context.Context, events []Event) error {
	pipe := s.rdb.Pipeline()
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("events: marshal %s: %w", e.Type, err)
		}
		pipe.Publish(ctx, s.channel, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("events: redis publish: %w", err)
	}
	return nil
}
