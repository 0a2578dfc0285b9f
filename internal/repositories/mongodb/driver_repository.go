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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AmbulanceDriversCollection = "ambulance_drivers"

type driverRepository struct {
	collection *mongo.Collection
}

func NewDriverRepository(db *mongo.Database) interfaces.DriverRepository {
	return &driverRepository{
		collection: db.Collection(AmbulanceDriversCollection),
	}
}

func (r *driverRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AmbulanceDriver, error) {
	var driver models.AmbulanceDriver
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&driver)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return &driver, nil
}

// SetAvailability runs as an update pipeline so the status decision reads
// the stored value in the same write.
func (r *driverRepository) SetAvailability(ctx context.Context, profile *models.AmbulanceDriver, active bool) (*models.AmbulanceDriver, error) {
	now := profile.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	target := models.DriverStatusOffline
	if active {
		target = models.DriverStatusAvailable
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"name":       literal(profile.Name),
			"phone":      literal(profile.Phone),
			"vehicle":    literal(profile.Vehicle),
			"active":     active,
			"updated_at": now,
			"created_at": bson.M{"$ifNull": bson.A{"$created_at", now}},
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.DriverStatusAssigned}},
				models.DriverStatusAssigned,
				target,
			}},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var driver models.AmbulanceDriver
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": profile.ID}, update, opts).Decode(&driver); err != nil {
		return nil, fmt.Errorf("failed to set driver availability: %w", err)
	}
	return &driver, nil
}

func (r *driverRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, location models.GeoPoint, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"location":             location,
			"last_location_update": at,
			"updated_at":           at,
		},
		"$setOnInsert": bson.M{
			"status":     models.DriverStatusOffline,
			"active":     false,
			"created_at": at,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to update driver location: %w", err)
	}
	return nil
}

func (r *driverRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DriverStatus, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to update driver status: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// ClaimForMission filters on status so two accepts by the same driver cannot
// both pass. When the driver is already assigned the upsert collides on _id,
// which reads as a lost claim.
func (r *driverRepository) ClaimForMission(ctx context.Context, id primitive.ObjectID, at time.Time) (models.DriverStatus, bool, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$ne": models.DriverStatusAssigned}}
	update := bson.M{
		"$set": bson.M{"status": models.DriverStatusAssigned, "updated_at": at},
		"$setOnInsert": bson.M{
			"active":     true,
			"created_at": at,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var before models.AmbulanceDriver
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	switch {
	case err == nil:
		return before.Status, true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return "", true, nil
	case mongo.IsDuplicateKeyError(err):
		return models.DriverStatusAssigned, false, nil
	default:
		return "", false, fmt.Errorf("failed to claim driver: %w", err)
	}
}

func (r *driverRepository) RegisterDevice(ctx context.Context, id primitive.ObjectID, device models.Device) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"device": device, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to register driver device: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// literal keeps caller strings from being read as aggregation field paths.
func literal(v interface{}) bson.M {
	return bson.M{"$literal": v}
}
