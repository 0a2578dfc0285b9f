package consumer

import (
	"context"
	"testing"

	"lifeline/internal/config"
	"lifeline/internal/models"
	"lifeline/internal/repositories/memory"
	"lifeline/internal/services"
	"lifeline/pkg/logger"
	"lifeline/pkg/mqtt"
	"lifeline/pkg/notify"
	"lifeline/pkg/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeSubscriber struct {
	handlers map[string]mqtt.MessageHandler
}

func (s *fakeSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	if s.handlers == nil {
		s.handlers = make(map[string]mqtt.MessageHandler)
	}
	s.handlers[topic] = handler
	return nil
}

type harness struct {
	consumer *Consumer
	store    *memory.Store
	bus      *notify.Recorder
	cfg      *config.MQTTConfig
}

func newHarness(t *testing.T) *harness {
	store := memory.NewStore()
	clock := clockz.NewFakeClock()
	sched := scheduler.New(clock, logger.Discard().Entry())
	t.Cleanup(sched.Stop)

	bus := notify.NewRecorder()
	svc, err := services.New(services.Dependencies{
		Requests:  memory.NewEmergencyRequestRepository(store),
		Drivers:   memory.NewDriverRepository(store),
		Hospitals: memory.NewHospitalRepository(store),
		Offers:    memory.NewOfferRepository(store),
		Geo:       memory.NewGeoIndex(store),
		Bus:       bus,
		Clock:     clock,
		Scheduler: sched,
	})
	require.NoError(t, err)

	cfg := &config.MQTTConfig{
		QoS:             1,
		WearableTopic:   "lifeline/wearables/+/sos",
		TelematicsTopic: "lifeline/telematics/+/location",
	}
	return &harness{
		consumer: New(svc.Dispatch, cfg, logger.Discard()),
		store:    store,
		bus:      bus,
		cfg:      cfg,
	}
}

func TestRegisterSubscribesBothTopics(t *testing.T) {
	h := newHarness(t)
	sub := &fakeSubscriber{}

	require.NoError(t, h.consumer.Register(sub))
	assert.Contains(t, sub.handlers, h.cfg.WearableTopic)
	assert.Contains(t, sub.handlers, h.cfg.TelematicsTopic)
}

func TestWearableTriggersAutoSOS(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	clientID := primitive.NewObjectID()

	payload := []byte(`{
		"lat": 37.422, "lng": -122.085,
		"condition": "fall_detected",
		"preliminary_severity": "high",
		"sensor_data": {"hr": 38, "accel_g": 6.2},
		"name": "Asha", "phone": "+15550100"
	}`)
	require.NoError(t, h.consumer.HandleWearable(ctx, "lifeline/wearables/"+clientID.Hex()+"/sos", payload))

	requests, err := memory.NewEmergencyRequestRepository(h.store).ListByClient(ctx, clientID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	request := requests[0]
	assert.True(t, request.AutoTriggered)
	assert.Equal(t, "fall_detected", request.Condition)
	assert.Equal(t, models.RequestStatusPending, request.Status)
	assert.Equal(t, 6.2, request.SensorData["accel_g"])

	alerts := h.bus.Named(models.EventSOSAlert)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Event.(models.SOSAlertEvent).AutoTriggered)
}

func TestWearableRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	topic := "lifeline/wearables/" + primitive.NewObjectID().Hex() + "/sos"

	assert.Error(t, h.consumer.HandleWearable(ctx, "lifeline/wearables/not-an-id/sos", []byte(`{}`)))
	assert.Error(t, h.consumer.HandleWearable(ctx, "lifeline/other/topic", []byte(`{}`)))
	assert.Error(t, h.consumer.HandleWearable(ctx, topic, []byte(`not json`)))
	assert.Error(t, h.consumer.HandleWearable(ctx, topic, []byte(`{"lat": 123, "lng": 0}`)))
	assert.Empty(t, h.bus.All())
}

func TestTelematicsUpdatesDriverLocation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	driverID := primitive.NewObjectID()

	topic := "lifeline/telematics/" + driverID.Hex() + "/location"
	require.NoError(t, h.consumer.HandleTelematics(ctx, topic, []byte(`{"lat": 37.43, "lng": -122.09}`)))

	driver, err := memory.NewDriverRepository(h.store).GetByID(ctx, driverID)
	require.NoError(t, err)
	require.NotNil(t, driver.Location)
	assert.InDelta(t, 37.43, driver.Location.Latitude(), 1e-9)

	updates := h.bus.Named(models.EventDriverLocationUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, models.DriverRoom(driverID), updates[0].Room)
}
