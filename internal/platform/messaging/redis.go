package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	contractsv1 "royalties/contracts/gen/events/v1"

	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "royalties:events:"

// RedisBus carries events over Redis pub/sub so the API and worker processes
// can run apart. Pub/sub has no persistence: events published while no
// worker is subscribed are lost, and the manual distribution endpoints
// remain the recovery path.
type RedisBus struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisBus(client *redis.Client, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{client: client, logger: logger}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr string, logger *slog.Logger) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedisBus(client, logger), nil
}

func (b *RedisBus) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, redisChannelPrefix+topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	sub := b.client.Subscribe(ctx, redisChannelPrefix+topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.dispatch(ctx, topic, consumerGroup, msg.Payload, handler)
			}
		}
	}()
	return nil
}

func (b *RedisBus) dispatch(
	ctx context.Context,
	topic string,
	consumerGroup string,
	payload string,
	handler func(context.Context, contractsv1.Envelope) error,
) {
	var event contractsv1.Envelope
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		b.logger.Error("redis event decode failed",
			"event", "redis_consume_decode_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"error", err.Error(),
		)
		return
	}
	if err := handler(ctx, event); err != nil {
		b.logger.Error("consumer handler failed",
			"event", "redis_consume_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", consumerGroup,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
	}
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
