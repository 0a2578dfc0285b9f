package memory

import (
	"context"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
)

type geoIndex struct {
	store *Store
}

// NewGeoIndex ranks by great-circle distance, which is what a 2dsphere
// $near query does.
func NewGeoIndex(store *Store) interfaces.GeoIndex {
	return &geoIndex{store: store}
}

func (g *geoIndex) NearestAvailableDrivers(ctx context.Context, q interfaces.DriverQuery) ([]*models.AmbulanceDriver, error) {
	g.store.mu.RLock()
	defer g.store.mu.RUnlock()

	var candidates []ranked[*models.AmbulanceDriver]
	for _, d := range g.store.drivers {
		if !d.IsDispatchable() {
			continue
		}
		candidates = append(candidates, ranked[*models.AmbulanceDriver]{
			item: d.Clone(),
			km:   distanceKM(q.Center, *d.Location),
			id:   d.ID,
		})
	}
	return nearest(candidates, q.RadiusKM, q.Limit), nil
}

func (g *geoIndex) NearestHospitals(ctx context.Context, q interfaces.HospitalQuery) ([]*models.Hospital, error) {
	g.store.mu.RLock()
	defer g.store.mu.RUnlock()

	var candidates []ranked[*models.Hospital]
	for _, h := range g.store.hospitals {
		if !h.Verified || !h.Location.IsSet() {
			continue
		}
		if q.RequireICU && h.Capacity.ICU <= 0 {
			continue
		}
		if q.RequireBeds && h.Capacity.Beds <= 0 {
			continue
		}
		candidates = append(candidates, ranked[*models.Hospital]{
			item: h.Clone(),
			km:   distanceKM(q.Center, h.Location),
			id:   h.ID,
		})
	}
	return nearest(candidates, q.RadiusKM, q.Limit), nil
}

func (g *geoIndex) NearestRequests(ctx context.Context, q interfaces.RequestQuery) ([]*models.EmergencyRequest, error) {
	g.store.mu.RLock()
	defer g.store.mu.RUnlock()

	var candidates []ranked[*models.EmergencyRequest]
	for _, r := range g.store.requests {
		if len(q.Statuses) > 0 && !r.Status.In(q.Statuses...) {
			continue
		}
		candidates = append(candidates, ranked[*models.EmergencyRequest]{
			item: r.Clone(),
			km:   distanceKM(q.Center, r.Location),
			id:   r.ID,
		})
	}
	return nearest(candidates, q.RadiusKM, q.Limit), nil
}
