package mongodb

import (
	"lifeline/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Migrations creates the indexes the repositories depend on. The 2dsphere
// indexes back every $near query.
func Migrations() []database.Migration {
	return []database.Migration{
		database.IndexMigration(1, EmergencyRequestsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "status", Value: 1}}},
		}),
		database.IndexMigration(2, AmbulanceDriversCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "active", Value: 1}}},
		}),
		database.IndexMigration(3, HospitalsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "verified", Value: 1}}},
		}),
		database.IndexMigration(4, AdmissionOffersCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "request_id", Value: 1}, {Key: "round", Value: 1}}},
			{Keys: bson.D{{Key: "hospital_id", Value: 1}, {Key: "status", Value: 1}}},
		}),
	}
}
