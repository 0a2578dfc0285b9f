package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lifeline/internal/models"
	"lifeline/pkg/logger"
	"lifeline/pkg/sms"
)

// ContactNotifier texts a patient's emergency contact. Sends run in the
// background and never fail the dispatch flow. A nil notifier is a no-op.
type ContactNotifier struct {
	provider sms.SMSProvider
	log      *logger.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewContactNotifier(provider sms.SMSProvider, log *logger.Logger) *ContactNotifier {
	return &ContactNotifier{
		provider: provider,
		log:      log,
		timeout:  15 * time.Second,
	}
}

func (n *ContactNotifier) SOSRaised(ctx context.Context, request *models.EmergencyRequest) {
	kind := "SOS"
	if request.AutoTriggered {
		kind = "An automatic SOS"
	}
	loc := request.Location.LatLng()
	n.send(ctx, request, fmt.Sprintf(
		"%s was raised for %s at https://maps.google.com/?q=%s. An ambulance is being dispatched.",
		kind, request.PatientName, loc,
	))
}

func (n *ContactNotifier) AdmissionConfirmed(ctx context.Context, request *models.EmergencyRequest, hospital *models.Hospital) {
	msg := fmt.Sprintf("%s is being taken to %s", request.PatientName, hospital.Name)
	if hospital.Address != "" {
		msg += ", " + hospital.Address
	}
	n.send(ctx, request, msg+".")
}

// Wait blocks until every queued message has been handed to the provider.
func (n *ContactNotifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

func (n *ContactNotifier) send(ctx context.Context, request *models.EmergencyRequest, message string) {
	if n == nil || n.provider == nil || request.EmergencyContact == "" {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		_, err := n.provider.SendSMS(ctx, &sms.SMSRequest{
			To:      request.EmergencyContact,
			Message: message,
			Type:    sms.TypeEmergency,
		})
		if err != nil {
			n.log.WithEmergencyID(request.ID).WithError(err).Warn("Failed to text emergency contact")
		}
	}()
}
