// Package notify fans room-addressed events out to connected clients.
// Delivery is fire-and-forget and at most once.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event is a typed payload with a stable wire name.
type Event interface {
	EventName() string
}

// Bus emits an event to every subscriber of a room.
type Bus interface {
	Emit(ctx context.Context, room string, event Event) error
}

// RawEvent carries an already encoded payload, as received from a relay.
type RawEvent struct {
	Name    string
	Payload json.RawMessage
}

func (e RawEvent) EventName() string { return e.Name }

func (e RawEvent) MarshalJSON() ([]byte, error) {
	if len(e.Payload) == 0 {
		return []byte("null"), nil
	}
	return e.Payload, nil
}

func encode(event Event) (json.RawMessage, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", event.EventName(), err)
	}
	return data, nil
}

// Multi emits to every bus in order and returns the first error.
type Multi []Bus

func (m Multi) Emit(ctx context.Context, room string, event Event) error {
	var first error
	for _, bus := range m {
		if err := bus.Emit(ctx, room, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
