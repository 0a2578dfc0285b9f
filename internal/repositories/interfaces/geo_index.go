package interfaces

import (
	"context"

	"lifeline/internal/models"
)

type DriverQuery struct {
	Center   models.GeoPoint
	RadiusKM float64
	Limit    int
}

type HospitalQuery struct {
	Center      models.GeoPoint
	RadiusKM    float64
	Limit       int
	RequireICU  bool
	RequireBeds bool
}

type RequestQuery struct {
	Center   models.GeoPoint
	RadiusKM float64
	Limit    int
	Statuses []models.RequestStatus
}

// GeoIndex answers point + max distance queries, nearest first.
type GeoIndex interface {
	NearestAvailableDrivers(ctx context.Context, query DriverQuery) ([]*models.AmbulanceDriver, error)
	NearestHospitals(ctx context.Context, query HospitalQuery) ([]*models.Hospital, error)
	NearestRequests(ctx context.Context, query RequestQuery) ([]*models.EmergencyRequest, error)
}
