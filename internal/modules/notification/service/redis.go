package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher announces milestones on a shared channel and on a
// per-subject channel for live listeners.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// SubjectChannel is the per-subject channel name.
func SubjectChannel(channel string, event MilestoneEvent) string {
	return fmt.Sprintf("%s:%s", channel, event.SubjectID.String())
}

func (p *RedisPublisher) Publish(ctx context.Context, event MilestoneEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode milestone event: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, p.channel, payload)
	pipe.Publish(ctx, SubjectChannel(p.channel, event), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish milestone to redis: %w", err)
	}
	return nil
}
