package interfaces

import (
	"context"
	"time"

	"lifeline/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HospitalRepository interface {
	Create(ctx context.Context, hospital *models.Hospital) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error)
	UpdateCapacity(ctx context.Context, id primitive.ObjectID, capacity models.Capacity, at time.Time) error
	// DecrementCapacity takes one unit of the counter relevant to the injury
	// level. It never drives a counter below zero and reports whether a unit
	// was taken.
	DecrementCapacity(ctx context.Context, id primitive.ObjectID, level models.InjuryLevel) (bool, error)
	RegisterDevice(ctx context.Context, id primitive.ObjectID, device models.Device) error
}
