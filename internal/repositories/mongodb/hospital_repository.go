package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const HospitalsCollection = "hospitals"

type hospitalRepository struct {
	collection *mongo.Collection
}

func NewHospitalRepository(db *mongo.Database) interfaces.HospitalRepository {
	return &hospitalRepository{
		collection: db.Collection(HospitalsCollection),
	}
}

func (r *hospitalRepository) Create(ctx context.Context, hospital *models.Hospital) error {
	if hospital.ID.IsZero() {
		hospital.ID = primitive.NewObjectID()
	}
	now := time.Now()
	hospital.CreatedAt = now
	hospital.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, hospital); err != nil {
		return fmt.Errorf("failed to create hospital: %w", err)
	}
	return nil
}

func (r *hospitalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error) {
	var hospital models.Hospital
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&hospital)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get hospital: %w", err)
	}
	return &hospital, nil
}

func (r *hospitalRepository) UpdateCapacity(ctx context.Context, id primitive.ObjectID, capacity models.Capacity, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"capacity": capacity, "updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to update hospital capacity: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *hospitalRepository) DecrementCapacity(ctx context.Context, id primitive.ObjectID, level models.InjuryLevel) (bool, error) {
	field := capacityField(level)
	if field == "" {
		return false, nil
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, field: bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{field: -1}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to decrement hospital capacity: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *hospitalRepository) RegisterDevice(ctx context.Context, id primitive.ObjectID, device models.Device) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"device": device, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to register hospital device: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func capacityField(level models.InjuryLevel) string {
	switch level {
	case models.InjuryLevelHigh:
		return "capacity.icu"
	case models.InjuryLevelMedium:
		return "capacity.beds"
	}
	return ""
}
