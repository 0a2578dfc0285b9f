// Package memory holds in-process repositories with the same conditional
// write semantics as the MongoDB ones. A single Store lock makes every
// compare-and-set atomic.
package memory

import (
	"sort"
	"sync"

	"lifeline/internal/models"
	"lifeline/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu        sync.RWMutex
	requests  map[primitive.ObjectID]*models.EmergencyRequest
	drivers   map[primitive.ObjectID]*models.AmbulanceDriver
	hospitals map[primitive.ObjectID]*models.Hospital
	offers    map[primitive.ObjectID]*models.AdmissionOffer
}

func NewStore() *Store {
	return &Store{
		requests:  make(map[primitive.ObjectID]*models.EmergencyRequest),
		drivers:   make(map[primitive.ObjectID]*models.AmbulanceDriver),
		hospitals: make(map[primitive.ObjectID]*models.Hospital),
		offers:    make(map[primitive.ObjectID]*models.AdmissionOffer),
	}
}

// ranked is a candidate with its distance from the query center.
type ranked[T any] struct {
	item T
	km   float64
	id   primitive.ObjectID
}

// nearest keeps candidates within radiusKM, sorts them nearest first and
// applies the limit. Ties go to the older id.
func nearest[T any](candidates []ranked[T], radiusKM float64, limit int) []T {
	within := candidates[:0]
	for _, c := range candidates {
		if c.km <= radiusKM {
			within = append(within, c)
		}
	}
	sort.Slice(within, func(i, j int) bool {
		if within[i].km != within[j].km {
			return within[i].km < within[j].km
		}
		return within[i].id.Hex() < within[j].id.Hex()
	})
	if limit > 0 && len(within) > limit {
		within = within[:limit]
	}

	out := make([]T, 0, len(within))
	for _, c := range within {
		out = append(out, c.item)
	}
	return out
}

func distanceKM(a, b models.GeoPoint) float64 {
	return utils.CalculateDistance(a.Latitude(), a.Longitude(), b.Latitude(), b.Longitude())
}
