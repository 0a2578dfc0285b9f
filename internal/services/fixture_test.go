package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"lifeline/internal/config"
	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/repositories/memory"
	"lifeline/pkg/logger"
	"lifeline/pkg/notify"
	"lifeline/pkg/scheduler"
	"lifeline/pkg/sms"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var patientLocation = models.LatLng{Lat: 37.422, Lng: -122.085}

type fixture struct {
	t         *testing.T
	ctx       context.Context
	store     *memory.Store
	requests  interfaces.EmergencyRequestRepository
	drivers   interfaces.DriverRepository
	hospitals interfaces.HospitalRepository
	offers    interfaces.OfferRepository
	clock     *clockz.FakeClock
	scheduler *scheduler.Scheduler
	bus       *notify.Recorder
	texts     *textRecorder
	contacts  *ContactNotifier
	svc       *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	clock := clockz.NewFakeClock()
	log := logger.Discard()
	sched := scheduler.New(clock, log.Entry())
	texts := &textRecorder{}
	contacts := NewContactNotifier(texts, log)

	f := &fixture{
		t:         t,
		ctx:       context.Background(),
		store:     store,
		requests:  memory.NewEmergencyRequestRepository(store),
		drivers:   memory.NewDriverRepository(store),
		hospitals: memory.NewHospitalRepository(store),
		offers:    memory.NewOfferRepository(store),
		clock:     clock,
		scheduler: sched,
		bus:       notify.NewRecorder(),
		texts:     texts,
		contacts:  contacts,
	}

	svc, err := New(Dependencies{
		Requests:  f.requests,
		Drivers:   f.drivers,
		Hospitals: f.hospitals,
		Offers:    f.offers,
		Geo:       memory.NewGeoIndex(store),
		Bus:       f.bus,
		Clock:     clock,
		Scheduler: sched,
		Contacts:  contacts,
		Logger:    log,
		Config:    config.DefaultDispatchConfig(),
	})
	require.NoError(t, err)
	f.svc = svc

	t.Cleanup(func() {
		sched.Stop()
		contacts.Wait()
	})
	return f
}

func (f *fixture) client() models.ClientPrincipal {
	return models.ClientPrincipal{
		ID:                  primitive.NewObjectID(),
		Name:                "Asha Rao",
		Phone:               "+15550100",
		BloodGroup:          "O+",
		HasMedicalAllergies: true,
		EmergencyContact:    "+15550199",
	}
}

// driverAt registers an active, available driver at the given position.
func (f *fixture) driverAt(name string, lat, lng float64) models.DriverPrincipal {
	id := primitive.NewObjectID()
	loc := models.NewGeoPoint(lat, lng)
	vehicle := models.Vehicle{Type: "ALS", Plate: "KA01-" + name}
	f.store.PutDriver(&models.AmbulanceDriver{
		ID:       id,
		Name:     name,
		Phone:    "+1555" + name,
		Location: &loc,
		Status:   models.DriverStatusAvailable,
		Active:   true,
		Vehicle:  vehicle,
	})
	return models.DriverPrincipal{ID: id, Name: name, Phone: "+1555" + name, Vehicle: vehicle}
}

func (f *fixture) hospitalAt(name string, lat, lng float64, capacity models.Capacity) (*models.Hospital, models.AdminPrincipal) {
	hospital := &models.Hospital{
		Name:     name,
		Address:  name + " Road",
		Location: models.NewGeoPoint(lat, lng),
		Capacity: capacity,
		Verified: true,
	}
	require.NoError(f.t, f.hospitals.Create(f.ctx, hospital))
	return hospital, models.AdminPrincipal{ID: primitive.NewObjectID(), HospitalID: hospital.ID, Name: name + " desk"}
}

func (f *fixture) sos(client models.ClientPrincipal) primitive.ObjectID {
	loc := patientLocation
	result, err := f.svc.Dispatch.TriggerSOS(f.ctx, client, SOSInput{
		Location:            &loc,
		Condition:           "chest_pain",
		PreliminarySeverity: "high",
	})
	require.NoError(f.t, err)
	return result.RequestID
}

// assessed drives a fresh request up to assessed with the given injury level
// and returns it together with its driver.
func (f *fixture) assessed(level string) (primitive.ObjectID, models.ClientPrincipal, models.DriverPrincipal) {
	client := f.client()
	driver := f.driverAt("Ravi", 37.43, -122.09)
	requestID := f.sos(client)

	accepted, err := f.svc.Dispatch.DriverAccept(f.ctx, driver, requestID)
	require.NoError(f.t, err)
	require.True(f.t, accepted.Accepted)

	_, err = f.svc.Dispatch.SubmitAssessment(f.ctx, driver, AssessmentInput{
		RequestID:  requestID,
		InjuryRisk: level,
		Notes:      "suspected MI",
	})
	require.NoError(f.t, err)
	return requestID, client, driver
}

func (f *fixture) request(id primitive.ObjectID) *models.EmergencyRequest {
	request, err := f.requests.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return request
}

func (f *fixture) offersFor(id primitive.ObjectID) []*models.AdmissionOffer {
	offers, err := f.offers.ListByRequest(f.ctx, id)
	require.NoError(f.t, err)
	return offers
}

// advance moves the fake clock and waits for timers to be delivered.
func (f *fixture) advance(d time.Duration) {
	f.clock.Advance(d)
	f.clock.BlockUntilReady()
}

type textRecorder struct {
	mu   sync.Mutex
	sent []*sms.SMSRequest
}

func (r *textRecorder) SendSMS(ctx context.Context, request *sms.SMSRequest) (*sms.SMSResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, request)
	return &sms.SMSResponse{MessageID: "SM1", Status: "queued"}, nil
}

func (r *textRecorder) SendBulkSMS(ctx context.Context, requests []*sms.SMSRequest) ([]*sms.SMSResponse, error) {
	var out []*sms.SMSResponse
	for _, req := range requests {
		resp, _ := r.SendSMS(ctx, req)
		out = append(out, resp)
	}
	return out, nil
}

func (r *textRecorder) GetDeliveryStatus(ctx context.Context, messageID string) (*sms.DeliveryStatus, error) {
	return &sms.DeliveryStatus{MessageID: messageID, Status: "delivered"}, nil
}

func (r *textRecorder) messages() []*sms.SMSRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sms.SMSRequest(nil), r.sent...)
}
