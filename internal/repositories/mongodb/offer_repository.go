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

const AdmissionOffersCollection = "admission_offers"

type offerRepository struct {
	collection *mongo.Collection
}

func NewOfferRepository(db *mongo.Database) interfaces.OfferRepository {
	return &offerRepository{
		collection: db.Collection(AdmissionOffersCollection),
	}
}

func (r *offerRepository) CreateMany(ctx context.Context, offers []*models.AdmissionOffer) error {
	if len(offers) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(offers))
	for _, offer := range offers {
		if offer.ID.IsZero() {
			offer.ID = primitive.NewObjectID()
		}
		docs = append(docs, offer)
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create admission offers: %w", err)
	}
	return nil
}

func (r *offerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AdmissionOffer, error) {
	var offer models.AdmissionOffer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&offer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get admission offer: %w", err)
	}
	return &offer, nil
}

func (r *offerRepository) ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]*models.AdmissionOffer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "round", Value: 1}, {Key: "eta_minutes", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"request_id": requestID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list admission offers: %w", err)
	}
	defer cursor.Close(ctx)

	var offers []*models.AdmissionOffer
	if err = cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode admission offers: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) Resolve(ctx context.Context, id primitive.ObjectID, status models.OfferStatus, at time.Time) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.OfferStatusPending},
		bson.M{"$set": bson.M{"status": status, "responded_at": at}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to resolve admission offer: %w", err)
	}
	return result.MatchedCount == 1, nil
}

func (r *offerRepository) ExpirePending(ctx context.Context, f interfaces.OfferFilter, at time.Time) (int64, error) {
	filter := bson.M{
		"request_id": f.RequestID,
		"status":     models.OfferStatusPending,
	}
	if f.Round > 0 {
		filter["round"] = f.Round
	}
	if f.ExcludeID != nil {
		filter["_id"] = bson.M{"$ne": *f.ExcludeID}
	}

	result, err := r.collection.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"status": models.OfferStatusExpired, "responded_at": at},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to expire admission offers: %w", err)
	}
	return result.ModifiedCount, nil
}
