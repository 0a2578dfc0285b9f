package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"lifeline/pkg/cache"

	"github.com/sirupsen/logrus"
)

const DefaultChannel = "lifeline:events"

type envelope struct {
	Room string          `json:"room"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// RedisBus publishes events on a Redis channel so that every instance
// relays them to its own sockets.
type RedisBus struct {
	cache   *cache.RedisCache
	channel string
	log     logrus.FieldLogger
}

func NewRedisBus(redisCache *cache.RedisCache, channel string, log logrus.FieldLogger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{cache: redisCache, channel: channel, log: log}
}

func (b *RedisBus) Emit(ctx context.Context, room string, event Event) error {
	data, err := encode(event)
	if err != nil {
		return err
	}
	if err := b.cache.Publish(ctx, b.channel, envelope{Room: room, Name: event.EventName(), Data: data}); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.EventName(), room, err)
	}
	return nil
}

// Relay forwards every published event to local until ctx is done.
func (b *RedisBus) Relay(ctx context.Context, local Bus) error {
	sub := b.cache.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	b.log.WithField("channel", b.channel).Info("Relaying events from redis")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.WithError(err).Warn("Dropping malformed relay message")
				continue
			}
			if err := local.Emit(ctx, env.Room, RawEvent{Name: env.Name, Payload: env.Data}); err != nil {
				b.log.WithError(err).WithField("room", env.Room).Warn("Failed to deliver relayed event")
			}
		}
	}
}
