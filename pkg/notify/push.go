package notify

import (
	"context"
	"time"

	"lifeline/pkg/push"

	"github.com/sirupsen/logrus"
)

// Alerts are useless once the offer or SOS window has passed.
const pushTTLSeconds = 60

// Pushable events also wake the recipient's device.
type Pushable interface {
	Event
	PushMessage() (title, body string)
}

// Target is a device registered for a room owner.
type Target struct {
	Token    string
	Platform string
}

// TargetResolver finds the device behind a private room. It reports false
// for shared rooms and for owners without a device.
type TargetResolver func(ctx context.Context, room string) (Target, bool, error)

// PushBus decorates a Bus with mobile push for Pushable events.
type PushBus struct {
	next      Bus
	providers map[string]push.PushProvider
	resolve   TargetResolver
	timeout   time.Duration
	log       logrus.FieldLogger
}

// NewPushBus routes pushes by device platform, e.g. "android" and "ios".
func NewPushBus(next Bus, providers map[string]push.PushProvider, resolve TargetResolver, log logrus.FieldLogger) *PushBus {
	return &PushBus{
		next:      next,
		providers: providers,
		resolve:   resolve,
		timeout:   10 * time.Second,
		log:       log,
	}
}

func (b *PushBus) Emit(ctx context.Context, room string, event Event) error {
	err := b.next.Emit(ctx, room, event)

	if p, ok := event.(Pushable); ok && len(b.providers) > 0 {
		go b.push(context.WithoutCancel(ctx), room, p)
	}
	return err
}

func (b *PushBus) push(ctx context.Context, room string, event Pushable) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	log := b.log.WithFields(logrus.Fields{"room": room, "event": event.EventName()})

	target, ok, err := b.resolve(ctx, room)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve push target")
		return
	}
	if !ok {
		return
	}
	provider, ok := b.providers[target.Platform]
	if !ok {
		log.WithField("platform", target.Platform).Debug("No push provider for platform")
		return
	}

	title, body := event.PushMessage()
	_, err = provider.SendNotification(ctx, &push.NotificationRequest{
		Token:    target.Token,
		Title:    title,
		Body:     body,
		Priority: push.PriorityHigh,
		TTL:      pushTTLSeconds,
		Data:     map[string]string{"event": event.EventName(), "room": room},
		IOS:      &push.IOSConfig{TimeSensitive: true},
		Android:  &push.AndroidConfig{ChannelID: "emergency"},
	})
	if err != nil {
		log.WithError(err).Warn("Push notification failed")
	}
}
