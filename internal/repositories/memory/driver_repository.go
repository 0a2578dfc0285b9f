package memory

import (
	"context"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type driverRepository struct {
	store *Store
}

func NewDriverRepository(store *Store) interfaces.DriverRepository {
	return &driverRepository{store: store}
}

func (r *driverRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AmbulanceDriver, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	driver, ok := r.store.drivers[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return driver.Clone(), nil
}

func (r *driverRepository) SetAvailability(ctx context.Context, profile *models.AmbulanceDriver, active bool) (*models.AmbulanceDriver, error) {
	now := profile.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	driver, ok := r.store.drivers[profile.ID]
	if !ok {
		driver = &models.AmbulanceDriver{ID: profile.ID, CreatedAt: now}
		r.store.drivers[profile.ID] = driver
	}
	driver.Name = profile.Name
	driver.Phone = profile.Phone
	driver.Vehicle = profile.Vehicle
	driver.Active = active
	driver.UpdatedAt = now
	if driver.Status != models.DriverStatusAssigned {
		driver.Status = models.DriverStatusOffline
		if active {
			driver.Status = models.DriverStatusAvailable
		}
	}
	return driver.Clone(), nil
}

func (r *driverRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, location models.GeoPoint, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	driver, ok := r.store.drivers[id]
	if !ok {
		driver = &models.AmbulanceDriver{ID: id, Status: models.DriverStatusOffline, CreatedAt: at}
		r.store.drivers[id] = driver
	}
	loc := models.GeoPoint{Type: location.Type, Coordinates: append([]float64(nil), location.Coordinates...)}
	driver.Location = &loc
	driver.LastLocationUpdate = &at
	driver.UpdatedAt = at
	return nil
}

func (r *driverRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DriverStatus, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	driver, ok := r.store.drivers[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	driver.Status = status
	driver.UpdatedAt = at
	return nil
}

func (r *driverRepository) ClaimForMission(ctx context.Context, id primitive.ObjectID, at time.Time) (models.DriverStatus, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	driver, ok := r.store.drivers[id]
	if !ok {
		r.store.drivers[id] = &models.AmbulanceDriver{
			ID:        id,
			Status:    models.DriverStatusAssigned,
			Active:    true,
			CreatedAt: at,
			UpdatedAt: at,
		}
		return "", true, nil
	}
	if driver.Status == models.DriverStatusAssigned {
		return driver.Status, false, nil
	}
	prior := driver.Status
	driver.Status = models.DriverStatusAssigned
	driver.UpdatedAt = at
	return prior, true, nil
}

func (r *driverRepository) RegisterDevice(ctx context.Context, id primitive.ObjectID, device models.Device) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	driver, ok := r.store.drivers[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	driver.Device = &device
	return nil
}

// PutDriver stores a driver as given. Used to seed local runs and tests.
func (s *Store) PutDriver(driver *models.AmbulanceDriver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[driver.ID] = driver.Clone()
}
