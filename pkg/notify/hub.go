package notify

import (
	"context"
	"time"

	"lifeline/pkg/websocket"
)

// HubBus delivers events to sockets connected to this process.
type HubBus struct {
	hub *websocket.Hub
}

func NewHubBus(hub *websocket.Hub) *HubBus {
	return &HubBus{hub: hub}
}

func (b *HubBus) Emit(ctx context.Context, room string, event Event) error {
	data, err := encode(event)
	if err != nil {
		return err
	}
	b.hub.Publish(room, websocket.Message{
		Type:      event.EventName(),
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
	return nil
}
