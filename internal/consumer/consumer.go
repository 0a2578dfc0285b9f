// Package consumer ingests device traffic from the MQTT broker: wearable
// auto-SOS triggers and ambulance telematics.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"lifeline/internal/config"
	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/pkg/logger"
	"lifeline/pkg/mqtt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscriber is the part of the MQTT client the consumer needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// WearableSOS is published by a paired wearable when it detects an
// emergency. The device carries the patient's profile so no lookup is
// needed on the hot path.
type WearableSOS struct {
	Lat                 float64           `json:"lat"`
	Lng                 float64           `json:"lng"`
	Condition           string            `json:"condition"`
	PreliminarySeverity string            `json:"preliminary_severity"`
	SensorData          models.SensorData `json:"sensor_data"`
	Name                string            `json:"name"`
	Phone               string            `json:"phone"`
	BloodGroup          string            `json:"blood_group"`
	HasMedicalAllergies bool              `json:"has_medical_allergies"`
	EmergencyContact    string            `json:"emergency_contact"`
}

// TelematicsFix is one GPS position reported by an ambulance unit.
type TelematicsFix struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Consumer struct {
	dispatch services.DispatchService
	cfg      *config.MQTTConfig
	log      *logger.Logger
}

func New(dispatch services.DispatchService, cfg *config.MQTTConfig, log *logger.Logger) *Consumer {
	return &Consumer{
		dispatch: dispatch,
		cfg:      cfg,
		log:      log.WithField("component", "mqtt_consumer"),
	}
}

// Register subscribes both handlers on sub.
func (c *Consumer) Register(sub Subscriber) error {
	if err := sub.Subscribe(c.cfg.WearableTopic, c.cfg.QoS, c.HandleWearable); err != nil {
		return err
	}
	return sub.Subscribe(c.cfg.TelematicsTopic, c.cfg.QoS, c.HandleTelematics)
}

func (c *Consumer) HandleWearable(ctx context.Context, topic string, payload []byte) error {
	clientID, err := topicID(c.cfg.WearableTopic, topic)
	if err != nil {
		return err
	}

	var msg WearableSOS
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to decode wearable SOS: %w", err)
	}

	location := models.LatLng{Lat: msg.Lat, Lng: msg.Lng}
	result, err := c.dispatch.TriggerSOS(ctx, models.ClientPrincipal{
		ID:                  clientID,
		Name:                msg.Name,
		Phone:               msg.Phone,
		BloodGroup:          msg.BloodGroup,
		HasMedicalAllergies: msg.HasMedicalAllergies,
		EmergencyContact:    msg.EmergencyContact,
	}, services.SOSInput{
		Location:            &location,
		Condition:           msg.Condition,
		PreliminarySeverity: msg.PreliminarySeverity,
		SensorData:          msg.SensorData,
		AutoTriggered:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to trigger wearable SOS: %w", err)
	}

	c.log.WithFields(map[string]interface{}{
		"client_id":  clientID.Hex(),
		"request_id": result.RequestID.Hex(),
		"drivers":    result.NearbyDriversCount,
	}).Info("Wearable SOS accepted")
	return nil
}

func (c *Consumer) HandleTelematics(ctx context.Context, topic string, payload []byte) error {
	driverID, err := topicID(c.cfg.TelematicsTopic, topic)
	if err != nil {
		return err
	}

	var fix TelematicsFix
	if err := json.Unmarshal(payload, &fix); err != nil {
		return fmt.Errorf("failed to decode telematics fix: %w", err)
	}
	return c.dispatch.UpdateDriverLocation(ctx, driverID, models.LatLng{Lat: fix.Lat, Lng: fix.Lng})
}

// topicID extracts the entity id captured by the single + in filter.
func topicID(filter, topic string) (primitive.ObjectID, error) {
	captures, ok := mqtt.MatchTopic(filter, topic)
	if !ok || len(captures) != 1 {
		return primitive.NilObjectID, fmt.Errorf("topic %q does not match %q", topic, filter)
	}
	id, err := primitive.ObjectIDFromHex(captures[0])
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id in topic %q: %w", topic, err)
	}
	return id, nil
}
