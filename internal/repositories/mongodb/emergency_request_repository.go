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

const EmergencyRequestsCollection = "emergency_requests"

type emergencyRequestRepository struct {
	collection *mongo.Collection
}

func NewEmergencyRequestRepository(db *mongo.Database) interfaces.EmergencyRequestRepository {
	return &emergencyRequestRepository{
		collection: db.Collection(EmergencyRequestsCollection),
	}
}

func (r *emergencyRequestRepository) Create(ctx context.Context, request *models.EmergencyRequest) error {
	if request.ID.IsZero() {
		request.ID = primitive.NewObjectID()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now()
	}
	request.UpdatedAt = request.CreatedAt
	request.Status = models.RequestStatusPending
	request.DriverID = nil
	request.HospitalID = nil

	if _, err := r.collection.InsertOne(ctx, request); err != nil {
		return fmt.Errorf("failed to create emergency request: %w", err)
	}
	return nil
}

func (r *emergencyRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.EmergencyRequest, error) {
	var request models.EmergencyRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get emergency request: %w", err)
	}
	return &request, nil
}

func (r *emergencyRequestRepository) TryAssignDriver(ctx context.Context, id primitive.ObjectID, a interfaces.DriverAssignment) (bool, error) {
	filter := bson.M{
		"_id":    id,
		"status": models.RequestStatusPending,
	}
	update := bson.M{
		"$set": bson.M{
			"status":         models.RequestStatusAccepted,
			"driver_id":      a.DriverID,
			"driver_name":    a.DriverName,
			"driver_contact": a.DriverContact,
			"vehicle":        a.Vehicle,
			"eta_minutes":    a.ETAMinutes,
			"accepted_at":    a.At,
			"updated_at":     a.At,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to assign driver: %w", err)
	}
	if result.MatchedCount == 1 {
		return true, nil
	}

	// Distinguish a lost race from an unknown id.
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *emergencyRequestRepository) MarkEnroute(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error {
	return r.transition(ctx, id, driverID, models.RequestStatusEnroute, bson.M{"updated_at": at})
}

func (r *emergencyRequestRepository) MarkArrivedAtScene(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error {
	return r.transition(ctx, id, driverID, models.RequestStatusArrivedAtScene, bson.M{
		"arrived_at_scene_at": at,
		"updated_at":          at,
	})
}

func (r *emergencyRequestRepository) RecordAssessment(ctx context.Context, id, driverID primitive.ObjectID, a interfaces.Assessment) error {
	set := bson.M{
		"injury_level": a.InjuryLevel,
		"injury_notes": a.Notes,
		"assessed_at":  a.At,
		"updated_at":   a.At,
	}
	if a.Vitals != nil {
		set["vitals"] = a.Vitals
	}
	return r.transition(ctx, id, driverID, models.RequestStatusAssessed, set)
}

func (r *emergencyRequestRepository) RecordPickup(ctx context.Context, id, driverID primitive.ObjectID, a interfaces.Assessment) error {
	set := bson.M{
		"injury_level": a.InjuryLevel,
		"driver_notes": a.Notes,
		"picked_up_at": a.At,
		"updated_at":   a.At,
	}
	if a.Vitals != nil {
		set["vitals"] = a.Vitals
	}
	return r.transition(ctx, id, driverID, models.RequestStatusInTransit, set)
}

func (r *emergencyRequestRepository) RecordAdmittedPickup(ctx context.Context, id, driverID primitive.ObjectID, a interfaces.Assessment) error {
	set := bson.M{
		"driver_notes": a.Notes,
		"picked_up_at": a.At,
		"updated_at":   a.At,
	}
	if a.Vitals != nil {
		set["vitals"] = a.Vitals
	}
	filter := bson.M{
		"_id":          id,
		"driver_id":    driverID,
		"status":       models.RequestStatusAcceptedByHospital,
		"picked_up_at": nil,
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to record pickup: %w", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "driver_id": driverID})
	if err != nil {
		return fmt.Errorf("failed to check emergency request ownership: %w", err)
	}
	if count == 0 {
		return interfaces.ErrNotFound
	}
	return interfaces.ErrPrecondition
}

func (r *emergencyRequestRepository) TryAssignHospital(ctx context.Context, id primitive.ObjectID, a interfaces.HospitalAssignment) (bool, error) {
	filter := bson.M{
		"_id":         id,
		"hospital_id": nil,
		"status":      bson.M{"$in": models.TransitionSources(models.RequestStatusAcceptedByHospital)},
	}
	update := bson.M{
		"$set": bson.M{
			"status":                models.RequestStatusAcceptedByHospital,
			"hospital_id":           a.HospitalID,
			"hospital_name":         a.HospitalName,
			"bed_number":            a.BedNumber,
			"arrival_dock":          a.ArrivalDock,
			"admission_decision_at": a.At,
			"updated_at":            a.At,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to assign hospital: %w", err)
	}
	if result.MatchedCount == 1 {
		return true, nil
	}

	request, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if request.HasHospital() {
		return false, nil
	}
	return false, interfaces.ErrPrecondition
}

func (r *emergencyRequestRepository) RecordArrival(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error {
	return r.transition(ctx, id, driverID, models.RequestStatusArrived, bson.M{
		"arrived_at": at,
		"updated_at": at,
	})
}

func (r *emergencyRequestRepository) ListByStatus(ctx context.Context, statuses []models.RequestStatus, limit int) ([]*models.EmergencyRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"status": bson.M{"$in": statuses}}, opts)
}

func (r *emergencyRequestRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]*models.EmergencyRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"client_id": clientID}, opts)
}

func (r *emergencyRequestRepository) FindActiveByDriver(ctx context.Context, driverID primitive.ObjectID) (*models.EmergencyRequest, error) {
	filter := bson.M{
		"driver_id": driverID,
		"status":    bson.M{"$in": models.DriverBoundStatuses},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "accepted_at", Value: -1}})

	var request models.EmergencyRequest
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&request); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active request for driver: %w", err)
	}
	return &request, nil
}

// transition applies a driver-owned status change. The filter requires the
// bound driver and one of the allowed source statuses.
func (r *emergencyRequestRepository) transition(ctx context.Context, id, driverID primitive.ObjectID, target models.RequestStatus, set bson.M) error {
	set["status"] = target
	filter := bson.M{
		"_id":       id,
		"driver_id": driverID,
		"status":    bson.M{"$in": models.TransitionSources(target)},
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to move emergency request to %s: %w", target, err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "driver_id": driverID})
	if err != nil {
		return fmt.Errorf("failed to check emergency request ownership: %w", err)
	}
	if count == 0 {
		return interfaces.ErrNotFound
	}
	return interfaces.ErrPrecondition
}

func (r *emergencyRequestRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.EmergencyRequest, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find emergency requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*models.EmergencyRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode emergency requests: %w", err)
	}
	return requests, nil
}
