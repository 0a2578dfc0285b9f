package memory

import (
	"context"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type hospitalRepository struct {
	store *Store
}

func NewHospitalRepository(store *Store) interfaces.HospitalRepository {
	return &hospitalRepository{store: store}
}

func (r *hospitalRepository) Create(ctx context.Context, hospital *models.Hospital) error {
	if hospital.ID.IsZero() {
		hospital.ID = primitive.NewObjectID()
	}
	now := time.Now()
	hospital.CreatedAt = now
	hospital.UpdatedAt = now

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.hospitals[hospital.ID] = hospital.Clone()
	return nil
}

func (r *hospitalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	hospital, ok := r.store.hospitals[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return hospital.Clone(), nil
}

func (r *hospitalRepository) UpdateCapacity(ctx context.Context, id primitive.ObjectID, capacity models.Capacity, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	hospital, ok := r.store.hospitals[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	hospital.Capacity = capacity
	hospital.UpdatedAt = at
	return nil
}

func (r *hospitalRepository) DecrementCapacity(ctx context.Context, id primitive.ObjectID, level models.InjuryLevel) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	hospital, ok := r.store.hospitals[id]
	if !ok {
		return false, nil
	}

	var counter *int
	switch level {
	case models.InjuryLevelHigh:
		counter = &hospital.Capacity.ICU
	case models.InjuryLevelMedium:
		counter = &hospital.Capacity.Beds
	default:
		return false, nil
	}
	if *counter <= 0 {
		return false, nil
	}
	*counter--
	return true, nil
}

func (r *hospitalRepository) RegisterDevice(ctx context.Context, id primitive.ObjectID, device models.Device) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	hospital, ok := r.store.hospitals[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	hospital.Device = &device
	return nil
}
