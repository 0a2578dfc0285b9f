package push

import (
	"context"
	"fmt"
	"time"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

type APNSProvider struct {
	client *apns2.Client
	topic  string
}

func NewAPNSProvider(keyFile, keyID, teamID, topic string, production bool) (*APNSProvider, error) {
	authKey, err := token.AuthKeyFromFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth key: %w", err)
	}

	tokenProvider := &token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	}

	client := apns2.NewTokenClient(tokenProvider)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSProvider{
		client: client,
		topic:  topic,
	}, nil
}

func (a *APNSProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	response, err := a.client.PushWithContext(ctx, a.buildNotification(request))
	if err != nil {
		return &NotificationResponse{
			Success: false,
			Error:   err.Error(),
			Token:   request.Token,
		}, err
	}

	if response.Sent() {
		return &NotificationResponse{
			MessageID: response.ApnsID,
			Success:   true,
			Token:     request.Token,
		}, nil
	}

	return &NotificationResponse{
		Success: false,
		Error:   response.Reason,
		Token:   request.Token,
	}, fmt.Errorf("APNS error: %s", response.Reason)
}

func (a *APNSProvider) SendBulkNotifications(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error) {
	responses := make([]*NotificationResponse, len(requests))

	for i, req := range requests {
		response, err := a.SendNotification(ctx, req)
		if err != nil && response == nil {
			response = &NotificationResponse{
				Success: false,
				Error:   err.Error(),
				Token:   req.Token,
			}
		}
		responses[i] = response
	}

	return responses, nil
}

// ValidateToken pushes a silent background notification.
func (a *APNSProvider) ValidateToken(ctx context.Context, deviceToken string) (bool, error) {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       a.topic,
		PushType:    apns2.PushTypeBackground,
		Priority:    apns2.PriorityLow,
		Payload:     payload.NewPayload().ContentAvailable(),
	}

	response, err := a.client.PushWithContext(ctx, notification)
	if err != nil {
		return false, err
	}
	if response.Reason == apns2.ReasonBadDeviceToken || response.Reason == apns2.ReasonUnregistered {
		return false, nil
	}
	return response.Sent(), nil
}

func (a *APNSProvider) buildNotification(request *NotificationRequest) *apns2.Notification {
	p := payload.NewPayload().
		AlertTitle(request.Title).
		AlertBody(request.Body)

	sound := request.Sound
	if request.IOS != nil {
		if request.IOS.Sound != "" {
			sound = request.IOS.Sound
		}
		if request.IOS.Category != "" {
			p.Category(request.IOS.Category)
		}
		if request.IOS.MutableContent {
			p.MutableContent()
		}
		if request.IOS.TimeSensitive {
			p.InterruptionLevel(payload.InterruptionLevelTimeSensitive)
		}
	}
	if sound != "" {
		p.Sound(sound)
	}
	for key, value := range request.Data {
		p.Custom(key, value)
	}

	notification := &apns2.Notification{
		DeviceToken: request.Token,
		Topic:       a.topic,
		PushType:    apns2.PushTypeAlert,
		Payload:     p,
		Priority:    apns2.PriorityLow,
	}
	if request.Priority == PriorityHigh {
		notification.Priority = apns2.PriorityHigh
	}
	if request.TTL > 0 {
		notification.Expiration = time.Now().Add(time.Duration(request.TTL) * time.Second)
	}
	if request.CollapseKey != "" {
		notification.CollapseID = request.CollapseKey
	}

	return notification
}
