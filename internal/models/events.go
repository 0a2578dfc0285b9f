package models

import (
	"fmt"
	"time"
)

const (
	EventSOSAlert             = "sos_alert"
	EventRequestAssigned      = "request_assigned"
	EventDriverAccepted       = "driver_accepted"
	EventIncomingPatient      = "incoming_patient"
	EventInjuryAssessment     = "injury_assessment_submitted"
	EventAssessmentReceived   = "assessment_received"
	EventPickedUp             = "picked_up"
	EventAdmissionOffer       = "admission_offer"
	EventHospitalConfirmed    = "hospital_confirmed"
	EventHospitalAccepted     = "hospital_accepted"
	EventHospitalRejected     = "hospital_rejected"
	EventDriverLocationUpdate = "driver_location_update"
	EventReachedHospital      = "reached_hospital"
	EventDriverArrived        = "driver_arrived"
)

// SOSAlertEvent is broadcast to candidate drivers for a pending request.
type SOSAlertEvent struct {
	RequestID           string     `json:"request_id"`
	UserID              string     `json:"user_id"`
	UserName            string     `json:"user_name"`
	BloodGroup          string     `json:"blood_group,omitempty"`
	HasMedicalAllergies bool       `json:"has_medical_allergies"`
	Lat                 float64    `json:"lat"`
	Lng                 float64    `json:"lng"`
	Timestamp           time.Time  `json:"timestamp"`
	Condition           string     `json:"condition,omitempty"`
	PreliminarySeverity string     `json:"preliminary_severity"`
	SensorData          SensorData `json:"sensor_data,omitempty"`
	AutoTriggered       bool       `json:"auto_triggered"`
	Contact             string     `json:"contact"`
	Escalated           bool       `json:"escalated,omitempty"`
	TTLSeconds          int        `json:"ttl_seconds"`
}

func (SOSAlertEvent) EventName() string { return EventSOSAlert }

func (e SOSAlertEvent) PushMessage() (string, string) {
	title := "SOS nearby"
	if e.Escalated {
		title = "SOS escalated"
	}
	return title, fmt.Sprintf("%s needs an ambulance (severity: %s)", e.UserName, e.PreliminarySeverity)
}

// RequestAssignedEvent tells the patient which driver won the request.
type RequestAssignedEvent struct {
	RequestID  string        `json:"request_id"`
	DriverID   string        `json:"driver_id"`
	DriverName string        `json:"driver_name"`
	Vehicle    string        `json:"vehicle"`
	ETAMinutes int           `json:"eta_minutes"`
	Contact    string        `json:"contact"`
	Status     RequestStatus `json:"status"`
	Message    string        `json:"message"`
}

func (RequestAssignedEvent) EventName() string { return EventRequestAssigned }

// DriverAcceptedEvent carries the same payload as RequestAssignedEvent.
type DriverAcceptedEvent RequestAssignedEvent

func (DriverAcceptedEvent) EventName() string { return EventDriverAccepted }

// DriverMissionEvent is the mission brief sent to the winning driver.
type DriverMissionEvent struct {
	RequestID           string        `json:"request_id"`
	UserName            string        `json:"user_name"`
	UserContact         string        `json:"user_contact"`
	BloodGroup          string        `json:"blood_group,omitempty"`
	HasMedicalAllergies bool          `json:"has_medical_allergies"`
	Condition           string        `json:"condition,omitempty"`
	Lat                 float64       `json:"lat"`
	Lng                 float64       `json:"lng"`
	ETAMinutes          int           `json:"eta_minutes"`
	Status              RequestStatus `json:"status"`
}

func (DriverMissionEvent) EventName() string { return EventRequestAssigned }

type IncomingPatientEvent struct {
	RequestID      string        `json:"request_id"`
	DriverName     string        `json:"driver_name"`
	DriverContact  string        `json:"driver_contact"`
	Vehicle        string        `json:"vehicle"`
	PatientName    string        `json:"patient_name"`
	PatientContact string        `json:"patient_contact"`
	Status         RequestStatus `json:"status"`
	ETAMinutes     int           `json:"eta_minutes"`
	Location       LatLng        `json:"location"`
	Message        string        `json:"message"`
}

func (IncomingPatientEvent) EventName() string { return EventIncomingPatient }

type InjuryAssessmentEvent struct {
	RequestID   string      `json:"request_id"`
	InjuryRisk  InjuryLevel `json:"injury_risk"`
	InjuryNotes string      `json:"injury_notes"`
	Vitals      *Vitals     `json:"vitals,omitempty"`
	PatientName string      `json:"patient_name"`
	Location    LatLng      `json:"location"`
	DriverID    string      `json:"driver_id"`
	DriverName  string      `json:"driver_name"`
	Timestamp   time.Time   `json:"timestamp"`
}

func (InjuryAssessmentEvent) EventName() string { return EventInjuryAssessment }

type AssessmentReceivedEvent struct {
	RequestID  string      `json:"request_id"`
	InjuryRisk InjuryLevel `json:"injury_risk"`
	Status     string      `json:"status"`
	Message    string      `json:"message"`
}

func (AssessmentReceivedEvent) EventName() string { return EventAssessmentReceived }

type PickedUpEvent struct {
	RequestID   string        `json:"request_id"`
	InjuryLevel InjuryLevel   `json:"injury_level"`
	Status      RequestStatus `json:"status"`
	Message     string        `json:"message"`
}

func (PickedUpEvent) EventName() string { return EventPickedUp }

type OfferPatient struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Contact             string `json:"contact"`
	BloodGroup          string `json:"blood_group,omitempty"`
	HasMedicalAllergies bool   `json:"has_medical_allergies"`
}

type OfferDriver struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Vehicle string `json:"vehicle"`
	Contact string `json:"contact"`
}

// AdmissionOfferEvent asks one hospital to admit the patient before ExpiresAt.
type AdmissionOfferEvent struct {
	RequestID   string       `json:"request_id"`
	OfferID     string       `json:"offer_id"`
	Round       int          `json:"round"`
	User        OfferPatient `json:"user"`
	Location    LatLng       `json:"location"`
	InjuryLevel InjuryLevel  `json:"injury_level"`
	InjuryNotes string       `json:"injury_notes"`
	Driver      OfferDriver  `json:"driver"`
	ETAMinutes  int          `json:"eta_minutes"`
	Vitals      *Vitals      `json:"vitals,omitempty"`
	Notes       string       `json:"notes"`
	TTLSeconds  int          `json:"ttl_seconds"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

func (AdmissionOfferEvent) EventName() string { return EventAdmissionOffer }

func (e AdmissionOfferEvent) PushMessage() (string, string) {
	return "Admission request", fmt.Sprintf("%s injury patient, ETA %d min. Respond within %ds.", e.InjuryLevel, e.ETAMinutes, e.TTLSeconds)
}

type HospitalConfirmedEvent struct {
	RequestID       string        `json:"request_id"`
	HospitalID      string        `json:"hospital_id"`
	HospitalName    string        `json:"hospital_name"`
	HospitalAddress string        `json:"hospital_address"`
	BedNumber       string        `json:"bed_number"`
	Dock            string        `json:"dock,omitempty"`
	Status          RequestStatus `json:"status"`
	Message         string        `json:"message"`
}

func (HospitalConfirmedEvent) EventName() string { return EventHospitalConfirmed }

type HospitalAcceptedEvent HospitalConfirmedEvent

func (HospitalAcceptedEvent) EventName() string { return EventHospitalAccepted }

type HospitalRejectedEvent struct {
	RequestID  string `json:"request_id"`
	HospitalID string `json:"hospital_id"`
	Message    string `json:"message"`
}

func (HospitalRejectedEvent) EventName() string { return EventHospitalRejected }

type DriverLocationEvent struct {
	DriverID    string        `json:"driver_id"`
	Location    LatLng        `json:"location"`
	Timestamp   time.Time     `json:"timestamp"`
	RequestID   string        `json:"request_id,omitempty"`
	DriverName  string        `json:"driver_name,omitempty"`
	Vehicle     string        `json:"vehicle,omitempty"`
	PatientName string        `json:"patient_name,omitempty"`
	InjuryRisk  InjuryLevel   `json:"injury_risk,omitempty"`
	Status      RequestStatus `json:"status,omitempty"`
}

func (DriverLocationEvent) EventName() string { return EventDriverLocationUpdate }

type ReachedHospitalEvent struct {
	RequestID string        `json:"request_id"`
	Status    RequestStatus `json:"status"`
	Message   string        `json:"message"`
}

func (ReachedHospitalEvent) EventName() string { return EventReachedHospital }

type DriverArrivedEvent struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

func (DriverArrivedEvent) EventName() string { return EventDriverArrived }
