package interfaces

import (
	"context"
	"time"

	"lifeline/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.AmbulanceDriver, error)
	// SetAvailability upserts the driver profile and toggles the active flag.
	// An assigned driver keeps its status.
	SetAvailability(ctx context.Context, profile *models.AmbulanceDriver, active bool) (*models.AmbulanceDriver, error)
	UpdateLocation(ctx context.Context, id primitive.ObjectID, location models.GeoPoint, at time.Time) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DriverStatus, at time.Time) error
	// ClaimForMission moves a driver that is not already assigned to
	// assigned in one write and returns the status it held before. A driver
	// without a profile is created assigned with an empty prior status.
	ClaimForMission(ctx context.Context, id primitive.ObjectID, at time.Time) (prior models.DriverStatus, claimed bool, err error)
	RegisterDevice(ctx context.Context, id primitive.ObjectID, device models.Device) error
}
