package mongodb

import (
	"context"
	"fmt"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type geoIndex struct {
	drivers   *mongo.Collection
	hospitals *mongo.Collection
	requests  *mongo.Collection
}

// NewGeoIndex queries the 2dsphere indexes of the driver, hospital and
// request collections. $near returns documents nearest first.
func NewGeoIndex(db *mongo.Database) interfaces.GeoIndex {
	return &geoIndex{
		drivers:   db.Collection(AmbulanceDriversCollection),
		hospitals: db.Collection(HospitalsCollection),
		requests:  db.Collection(EmergencyRequestsCollection),
	}
}

func (g *geoIndex) NearestAvailableDrivers(ctx context.Context, q interfaces.DriverQuery) ([]*models.AmbulanceDriver, error) {
	filter := bson.M{
		"status":   models.DriverStatusAvailable,
		"active":   true,
		"location": near(q.Center, q.RadiusKM),
	}

	cursor, err := g.drivers.Find(ctx, filter, limit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby drivers: %w", err)
	}
	defer cursor.Close(ctx)

	var drivers []*models.AmbulanceDriver
	if err = cursor.All(ctx, &drivers); err != nil {
		return nil, fmt.Errorf("failed to decode nearby drivers: %w", err)
	}
	return drivers, nil
}

func (g *geoIndex) NearestHospitals(ctx context.Context, q interfaces.HospitalQuery) ([]*models.Hospital, error) {
	filter := bson.M{
		"verified": true,
		"location": near(q.Center, q.RadiusKM),
	}
	if q.RequireICU {
		filter["capacity.icu"] = bson.M{"$gt": 0}
	}
	if q.RequireBeds {
		filter["capacity.beds"] = bson.M{"$gt": 0}
	}

	cursor, err := g.hospitals.Find(ctx, filter, limit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby hospitals: %w", err)
	}
	defer cursor.Close(ctx)

	var hospitals []*models.Hospital
	if err = cursor.All(ctx, &hospitals); err != nil {
		return nil, fmt.Errorf("failed to decode nearby hospitals: %w", err)
	}
	return hospitals, nil
}

func (g *geoIndex) NearestRequests(ctx context.Context, q interfaces.RequestQuery) ([]*models.EmergencyRequest, error) {
	filter := bson.M{
		"location": near(q.Center, q.RadiusKM),
	}
	if len(q.Statuses) > 0 {
		filter["status"] = bson.M{"$in": q.Statuses}
	}

	cursor, err := g.requests.Find(ctx, filter, limit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*models.EmergencyRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode nearby requests: %w", err)
	}
	return requests, nil
}

func near(center models.GeoPoint, radiusKM float64) bson.M {
	return bson.M{
		"$near": bson.M{
			"$geometry": bson.M{
				"type":        "Point",
				"coordinates": center.Coordinates,
			},
			"$maxDistance": radiusKM * 1000,
		},
	}
}

func limit(n int) *options.FindOptions {
	opts := options.Find()
	if n > 0 {
		opts.SetLimit(int64(n))
	}
	return opts
}
