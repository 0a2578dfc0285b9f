package push

import "context"

type PushProvider interface {
	SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
	SendBulkNotifications(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error)
	ValidateToken(ctx context.Context, token string) (bool, error)
}

const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

type NotificationRequest struct {
	Token       string            `json:"token"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	Sound       string            `json:"sound,omitempty"`
	Priority    string            `json:"priority,omitempty"`
	TTL         int               `json:"ttl,omitempty"` // seconds
	CollapseKey string            `json:"collapse_key,omitempty"`
	IOS         *IOSConfig        `json:"ios,omitempty"`
	Android     *AndroidConfig    `json:"android,omitempty"`
}

type NotificationResponse struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`
}

type IOSConfig struct {
	Sound          string `json:"sound,omitempty"`
	Category       string `json:"category,omitempty"`
	MutableContent bool   `json:"mutable_content,omitempty"`
	// TimeSensitive breaks through Focus modes on iOS 15+.
	TimeSensitive bool `json:"time_sensitive,omitempty"`
}

type AndroidConfig struct {
	Sound       string `json:"sound,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	Tag         string `json:"tag,omitempty"`
	ClickAction string `json:"click_action,omitempty"`
}
