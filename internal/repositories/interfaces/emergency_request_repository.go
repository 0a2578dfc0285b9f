package interfaces

import (
	"context"
	"time"

	"lifeline/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverAssignment struct {
	DriverID      primitive.ObjectID
	DriverName    string
	DriverContact string
	Vehicle       string
	ETAMinutes    int
	At            time.Time
}

type Assessment struct {
	InjuryLevel models.InjuryLevel
	Notes       string
	Vitals      *models.Vitals
	At          time.Time
}

type HospitalAssignment struct {
	HospitalID   primitive.ObjectID
	HospitalName string
	BedNumber    string
	ArrivalDock  string
	At           time.Time
}

// EmergencyRequestRepository is the request ledger. Every mutating call is a
// single conditional write: the filter carries the required current status
// and owner, so concurrent callers cannot both succeed.
type EmergencyRequestRepository interface {
	Create(ctx context.Context, request *models.EmergencyRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.EmergencyRequest, error)

	// TryAssignDriver moves pending -> accepted. It reports false, nil when
	// the request is no longer pending.
	TryAssignDriver(ctx context.Context, id primitive.ObjectID, assignment DriverAssignment) (bool, error)
	MarkEnroute(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error
	MarkArrivedAtScene(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error
	RecordAssessment(ctx context.Context, id, driverID primitive.ObjectID, assessment Assessment) error
	RecordPickup(ctx context.Context, id, driverID primitive.ObjectID, assessment Assessment) error
	// RecordAdmittedPickup stores pickup time, notes and vitals on a request
	// a hospital has already accepted and that has no pickup yet. Status and
	// injury level are left as admitted.
	RecordAdmittedPickup(ctx context.Context, id, driverID primitive.ObjectID, assessment Assessment) error
	// TryAssignHospital binds a hospital while hospital_id is still null.
	TryAssignHospital(ctx context.Context, id primitive.ObjectID, assignment HospitalAssignment) (bool, error)
	RecordArrival(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error

	ListByStatus(ctx context.Context, statuses []models.RequestStatus, limit int) ([]*models.EmergencyRequest, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]*models.EmergencyRequest, error)
	FindActiveByDriver(ctx context.Context, driverID primitive.ObjectID) (*models.EmergencyRequest, error)
}
