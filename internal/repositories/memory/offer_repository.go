package memory

import (
	"context"
	"sort"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type offerRepository struct {
	store *Store
}

func NewOfferRepository(store *Store) interfaces.OfferRepository {
	return &offerRepository{store: store}
}

func (r *offerRepository) CreateMany(ctx context.Context, offers []*models.AdmissionOffer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, offer := range offers {
		if offer.ID.IsZero() {
			offer.ID = primitive.NewObjectID()
		}
		r.store.offers[offer.ID] = offer.Clone()
	}
	return nil
}

func (r *offerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AdmissionOffer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	offer, ok := r.store.offers[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return offer.Clone(), nil
}

func (r *offerRepository) ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]*models.AdmissionOffer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var offers []*models.AdmissionOffer
	for _, offer := range r.store.offers {
		if offer.RequestID == requestID {
			offers = append(offers, offer.Clone())
		}
	}
	sort.Slice(offers, func(i, j int) bool {
		if offers[i].Round != offers[j].Round {
			return offers[i].Round < offers[j].Round
		}
		return offers[i].ETAMinutes < offers[j].ETAMinutes
	})
	return offers, nil
}

func (r *offerRepository) Resolve(ctx context.Context, id primitive.ObjectID, status models.OfferStatus, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	offer, ok := r.store.offers[id]
	if !ok || offer.Status != models.OfferStatusPending {
		return false, nil
	}
	offer.Status = status
	offer.RespondedAt = &at
	return true, nil
}

func (r *offerRepository) ExpirePending(ctx context.Context, f interfaces.OfferFilter, at time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var expired int64
	for _, offer := range r.store.offers {
		if offer.RequestID != f.RequestID || offer.Status != models.OfferStatusPending {
			continue
		}
		if f.Round > 0 && offer.Round != f.Round {
			continue
		}
		if f.ExcludeID != nil && offer.ID == *f.ExcludeID {
			continue
		}
		offer.Status = models.OfferStatusExpired
		respondedAt := at
		offer.RespondedAt = &respondedAt
		expired++
	}
	return expired, nil
}
