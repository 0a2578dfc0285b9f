package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	fail map[string]bool
	sent []string
}

func (s *stubProvider) SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error) {
	if s.fail[request.To] {
		return nil, errors.New("carrier rejected")
	}
	s.sent = append(s.sent, request.To)
	return &SMSResponse{MessageID: "m-" + request.To, Status: "sent"}, nil
}

func (s *stubProvider) SendBulkSMS(ctx context.Context, requests []*SMSRequest) ([]*SMSResponse, error) {
	return sendEach(ctx, s, requests), nil
}

func (s *stubProvider) GetDeliveryStatus(ctx context.Context, messageID string) (*DeliveryStatus, error) {
	return &DeliveryStatus{MessageID: messageID}, nil
}

func TestSendEachContinuesPastFailures(t *testing.T) {
	p := &stubProvider{fail: map[string]bool{"+2": true}}

	responses, err := p.SendBulkSMS(context.Background(), []*SMSRequest{
		{To: "+1", Message: "a"},
		{To: "+2", Message: "b"},
		{To: "+3", Message: "c"},
	})
	require.NoError(t, err)
	require.Len(t, responses, 3)

	assert.Equal(t, "sent", responses[0].Status)
	assert.Equal(t, "failed", responses[1].Status)
	assert.Equal(t, "carrier rejected", responses[1].Error)
	assert.Equal(t, "m-+3", responses[2].MessageID)
	assert.Equal(t, []string{"+1", "+3"}, p.sent)
}

func TestTwilioFromNumberFallback(t *testing.T) {
	p := NewTwilioProvider("AC123", "secret", "+15550000")
	assert.Equal(t, "+15550000", p.getFromNumber(""))
	assert.Equal(t, "+15559999", p.getFromNumber("+15559999"))
}
