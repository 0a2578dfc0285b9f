package interfaces

import (
	"context"
	"time"

	"lifeline/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OfferFilter narrows ExpirePending. Round 0 matches every round.
type OfferFilter struct {
	RequestID primitive.ObjectID
	Round     int
	ExcludeID *primitive.ObjectID
}

type OfferRepository interface {
	CreateMany(ctx context.Context, offers []*models.AdmissionOffer) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.AdmissionOffer, error)
	ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]*models.AdmissionOffer, error)
	// Resolve moves a pending offer to a terminal status. It reports false
	// when the offer was no longer pending.
	Resolve(ctx context.Context, id primitive.ObjectID, status models.OfferStatus, at time.Time) (bool, error)
	ExpirePending(ctx context.Context, filter OfferFilter, at time.Time) (int64, error)
}
