package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStatus string
type InjuryLevel string

const (
	RequestStatusPending            RequestStatus = "pending"
	RequestStatusAccepted           RequestStatus = "accepted"
	RequestStatusEnroute            RequestStatus = "enroute"
	RequestStatusArrivedAtScene     RequestStatus = "arrived_at_scene"
	RequestStatusAssessed           RequestStatus = "assessed"
	RequestStatusInTransit          RequestStatus = "in_transit"
	RequestStatusAcceptedByHospital RequestStatus = "accepted_by_hospital"
	RequestStatusArrived            RequestStatus = "arrived"

	InjuryLevelLow    InjuryLevel = "low"
	InjuryLevelMedium InjuryLevel = "medium"
	InjuryLevelHigh   InjuryLevel = "high"
)

// DriverBoundStatuses are the statuses in which a request holds a driver
// and has not reached a terminal state.
var DriverBoundStatuses = []RequestStatus{
	RequestStatusAccepted,
	RequestStatusEnroute,
	RequestStatusArrivedAtScene,
	RequestStatusAssessed,
	RequestStatusInTransit,
	RequestStatusAcceptedByHospital,
}

// InboundStatuses are shown on the hospital dashboard.
var InboundStatuses = []RequestStatus{
	RequestStatusAccepted,
	RequestStatusEnroute,
	RequestStatusArrivedAtScene,
	RequestStatusAssessed,
	RequestStatusInTransit,
}

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusArrived
}

func (s RequestStatus) In(statuses ...RequestStatus) bool {
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

func ParseInjuryLevel(value string) (InjuryLevel, bool) {
	switch InjuryLevel(value) {
	case InjuryLevelLow, InjuryLevelMedium, InjuryLevelHigh:
		return InjuryLevel(value), true
	}
	return "", false
}

// SensorData is the raw wearable payload, relayed to drivers untouched.
type SensorData map[string]interface{}

type Vitals struct {
	Pulse           *int     `json:"pulse,omitempty" bson:"pulse,omitempty"`
	BloodPressure   string   `json:"bp,omitempty" bson:"bp,omitempty"`
	SpO2            *int     `json:"spo2,omitempty" bson:"spo2,omitempty"`
	RespiratoryRate *int     `json:"respiratory_rate,omitempty" bson:"respiratory_rate,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty" bson:"temperature,omitempty"`
	GCS             *int     `json:"gcs,omitempty" bson:"gcs,omitempty"`
}

type EmergencyRequest struct {
	ID                  primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ClientID            primitive.ObjectID  `json:"client_id" bson:"client_id"`
	PatientName         string              `json:"user_name" bson:"user_name"`
	PatientContact      string              `json:"user_contact" bson:"user_contact"`
	BloodGroup          string              `json:"blood_group,omitempty" bson:"blood_group,omitempty"`
	HasMedicalAllergies bool                `json:"has_medical_allergies" bson:"has_medical_allergies"`
	EmergencyContact    string              `json:"-" bson:"emergency_contact,omitempty"`
	Location            GeoPoint            `json:"location" bson:"location"`
	Condition           string              `json:"condition" bson:"condition"`
	PreliminarySeverity string              `json:"preliminary_severity" bson:"preliminary_severity"`
	AutoTriggered       bool                `json:"auto_triggered" bson:"auto_triggered"`
	SensorData          SensorData          `json:"sensor_data,omitempty" bson:"sensor_data,omitempty"`
	Status              RequestStatus       `json:"status" bson:"status"`
	DriverID            *primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	DriverName          string              `json:"driver_name,omitempty" bson:"driver_name,omitempty"`
	DriverContact       string              `json:"driver_contact,omitempty" bson:"driver_contact,omitempty"`
	Vehicle             string              `json:"vehicle,omitempty" bson:"vehicle,omitempty"`
	ETAMinutes          int                 `json:"eta_minutes,omitempty" bson:"eta_minutes,omitempty"`
	HospitalID          *primitive.ObjectID `json:"hospital_id" bson:"hospital_id"`
	HospitalName        string              `json:"hospital_name,omitempty" bson:"hospital_name,omitempty"`
	BedNumber           string              `json:"bed_number,omitempty" bson:"bed_number,omitempty"`
	ArrivalDock         string              `json:"arrival_dock,omitempty" bson:"arrival_dock,omitempty"`
	InjuryLevel         *InjuryLevel        `json:"injury_level" bson:"injury_level"`
	InjuryNotes         string              `json:"injury_notes,omitempty" bson:"injury_notes,omitempty"`
	DriverNotes         string              `json:"driver_notes,omitempty" bson:"driver_notes,omitempty"`
	Vitals              *Vitals             `json:"vitals,omitempty" bson:"vitals,omitempty"`
	CreatedAt           time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at" bson:"updated_at"`
	AcceptedAt          *time.Time          `json:"accepted_at,omitempty" bson:"accepted_at,omitempty"`
	ArrivedAtSceneAt    *time.Time          `json:"arrived_at_scene_at,omitempty" bson:"arrived_at_scene_at,omitempty"`
	AssessedAt          *time.Time          `json:"assessed_at,omitempty" bson:"assessed_at,omitempty"`
	PickedUpAt          *time.Time          `json:"picked_up_at,omitempty" bson:"picked_up_at,omitempty"`
	AdmissionDecisionAt *time.Time          `json:"admission_decision_at,omitempty" bson:"admission_decision_at,omitempty"`
	ArrivedAt           *time.Time          `json:"arrived_at,omitempty" bson:"arrived_at,omitempty"`
}

func (r *EmergencyRequest) IsBoundTo(driverID primitive.ObjectID) bool {
	return r.DriverID != nil && *r.DriverID == driverID
}

func (r *EmergencyRequest) HasHospital() bool {
	return r.HospitalID != nil && !r.HospitalID.IsZero()
}

// Injury returns the triage level, defaulting to low when unassessed.
func (r *EmergencyRequest) Injury() InjuryLevel {
	if r.InjuryLevel == nil {
		return InjuryLevelLow
	}
	return *r.InjuryLevel
}

// Clone returns a deep copy so in-process stores never share mutable state
// with their callers.
func (r *EmergencyRequest) Clone() *EmergencyRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.Location.Coordinates = append([]float64(nil), r.Location.Coordinates...)
	if r.SensorData != nil {
		c.SensorData = make(SensorData, len(r.SensorData))
		for k, v := range r.SensorData {
			c.SensorData[k] = v
		}
	}
	c.DriverID = cloneID(r.DriverID)
	c.HospitalID = cloneID(r.HospitalID)
	if r.InjuryLevel != nil {
		level := *r.InjuryLevel
		c.InjuryLevel = &level
	}
	if r.Vitals != nil {
		vitals := *r.Vitals
		c.Vitals = &vitals
	}
	c.AcceptedAt = cloneTime(r.AcceptedAt)
	c.ArrivedAtSceneAt = cloneTime(r.ArrivedAtSceneAt)
	c.AssessedAt = cloneTime(r.AssessedAt)
	c.PickedUpAt = cloneTime(r.PickedUpAt)
	c.AdmissionDecisionAt = cloneTime(r.AdmissionDecisionAt)
	c.ArrivedAt = cloneTime(r.ArrivedAt)
	return &c
}

func cloneID(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// transitionSources lists, for every target status, the statuses a request
// may currently hold to move there. Anything else is an invalid transition.
var transitionSources = map[RequestStatus][]RequestStatus{
	RequestStatusAccepted:           {RequestStatusPending},
	RequestStatusEnroute:            {RequestStatusAccepted},
	RequestStatusArrivedAtScene:     {RequestStatusAccepted, RequestStatusEnroute},
	RequestStatusAssessed:           {RequestStatusAccepted, RequestStatusEnroute, RequestStatusArrivedAtScene},
	RequestStatusInTransit:          {RequestStatusAccepted, RequestStatusEnroute, RequestStatusArrivedAtScene, RequestStatusAssessed},
	RequestStatusAcceptedByHospital: {RequestStatusAssessed, RequestStatusInTransit},
	RequestStatusArrived:            {RequestStatusAcceptedByHospital},
}

// TransitionSources returns the statuses from which target is reachable.
func TransitionSources(target RequestStatus) []RequestStatus {
	return append([]RequestStatus(nil), transitionSources[target]...)
}

func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	return s.In(transitionSources[target]...)
}
