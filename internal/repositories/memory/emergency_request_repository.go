package memory

import (
	"context"
	"sort"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type emergencyRequestRepository struct {
	store *Store
}

func NewEmergencyRequestRepository(store *Store) interfaces.EmergencyRequestRepository {
	return &emergencyRequestRepository{store: store}
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

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.requests[request.ID] = request.Clone()
	return nil
}

func (r *emergencyRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.EmergencyRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	request, ok := r.store.requests[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return request.Clone(), nil
}

func (r *emergencyRequestRepository) TryAssignDriver(ctx context.Context, id primitive.ObjectID, a interfaces.DriverAssignment) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	request, ok := r.store.requests[id]
	if !ok {
		return false, interfaces.ErrNotFound
	}
	if request.Status != models.RequestStatusPending {
		return false, nil
	}

	driverID := a.DriverID
	at := a.At
	request.Status = models.RequestStatusAccepted
	request.DriverID = &driverID
	request.DriverName = a.DriverName
	request.DriverContact = a.DriverContact
	request.Vehicle = a.Vehicle
	request.ETAMinutes = a.ETAMinutes
	request.AcceptedAt = &at
	request.UpdatedAt = at
	return true, nil
}

func (r *emergencyRequestRepository) MarkEnroute(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error {
	return r.transition(id, driverID, models.RequestStatusEnroute, at, nil)
}

func (r *emergencyRequestRepository) MarkArrivedAtScene(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error {
	return r.transition(id, driverID, models.RequestStatusArrivedAtScene, at, func(req *models.EmergencyRequest) {
		req.ArrivedAtSceneAt = &at
	})
}

func (r *emergencyRequestRepository) RecordAssessment(ctx context.Context, id, driverID primitive.ObjectID, a interfaces.Assessment) error {
	return r.transition(id, driverID, models.RequestStatusAssessed, a.At, func(req *models.EmergencyRequest) {
		level := a.InjuryLevel
		at := a.At
		req.InjuryLevel = &level
		req.InjuryNotes = a.Notes
		req.AssessedAt = &at
		if a.Vitals != nil {
			vitals := *a.Vitals
			req.Vitals = &vitals
		}
	})
}

func (r *emergencyRequestRepository) RecordPickup(ctx context.Context, id, driverID primitive.ObjectID, a interfaces.Assessment) error {
	return r.transition(id, driverID, models.RequestStatusInTransit, a.At, func(req *models.EmergencyRequest) {
		level := a.InjuryLevel
		at := a.At
		req.InjuryLevel = &level
		req.DriverNotes = a.Notes
		req.PickedUpAt = &at
		if a.Vitals != nil {
			vitals := *a.Vitals
			req.Vitals = &vitals
		}
	})
}

func (r *emergencyRequestRepository) RecordAdmittedPickup(ctx context.Context, id, driverID primitive.ObjectID, a interfaces.Assessment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	request, ok := r.store.requests[id]
	if !ok || !request.IsBoundTo(driverID) {
		return interfaces.ErrNotFound
	}
	if request.Status != models.RequestStatusAcceptedByHospital || request.PickedUpAt != nil {
		return interfaces.ErrPrecondition
	}

	at := a.At
	request.PickedUpAt = &at
	request.DriverNotes = a.Notes
	request.UpdatedAt = at
	if a.Vitals != nil {
		vitals := *a.Vitals
		request.Vitals = &vitals
	}
	return nil
}

func (r *emergencyRequestRepository) TryAssignHospital(ctx context.Context, id primitive.ObjectID, a interfaces.HospitalAssignment) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	request, ok := r.store.requests[id]
	if !ok {
		return false, interfaces.ErrNotFound
	}
	if request.HasHospital() {
		return false, nil
	}
	if !request.Status.CanTransitionTo(models.RequestStatusAcceptedByHospital) {
		return false, interfaces.ErrPrecondition
	}

	hospitalID := a.HospitalID
	at := a.At
	request.Status = models.RequestStatusAcceptedByHospital
	request.HospitalID = &hospitalID
	request.HospitalName = a.HospitalName
	request.BedNumber = a.BedNumber
	request.ArrivalDock = a.ArrivalDock
	request.AdmissionDecisionAt = &at
	request.UpdatedAt = at
	return true, nil
}

func (r *emergencyRequestRepository) RecordArrival(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error {
	return r.transition(id, driverID, models.RequestStatusArrived, at, func(req *models.EmergencyRequest) {
		req.ArrivedAt = &at
	})
}

func (r *emergencyRequestRepository) ListByStatus(ctx context.Context, statuses []models.RequestStatus, limit int) ([]*models.EmergencyRequest, error) {
	return r.list(limit, func(req *models.EmergencyRequest) bool {
		return req.Status.In(statuses...)
	}), nil
}

func (r *emergencyRequestRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]*models.EmergencyRequest, error) {
	return r.list(0, func(req *models.EmergencyRequest) bool {
		return req.ClientID == clientID
	}), nil
}

func (r *emergencyRequestRepository) FindActiveByDriver(ctx context.Context, driverID primitive.ObjectID) (*models.EmergencyRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var active *models.EmergencyRequest
	for _, req := range r.store.requests {
		if !req.IsBoundTo(driverID) || !req.Status.In(models.DriverBoundStatuses...) {
			continue
		}
		if active == nil || req.AcceptedAt != nil && active.AcceptedAt != nil && req.AcceptedAt.After(*active.AcceptedAt) {
			active = req
		}
	}
	if active == nil {
		return nil, interfaces.ErrNotFound
	}
	return active.Clone(), nil
}

func (r *emergencyRequestRepository) transition(id, driverID primitive.ObjectID, target models.RequestStatus, at time.Time, apply func(*models.EmergencyRequest)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	request, ok := r.store.requests[id]
	if !ok || !request.IsBoundTo(driverID) {
		return interfaces.ErrNotFound
	}
	if !request.Status.CanTransitionTo(target) {
		return interfaces.ErrPrecondition
	}

	request.Status = target
	request.UpdatedAt = at
	if apply != nil {
		apply(request)
	}
	return nil
}

// list returns matching requests newest first.
func (r *emergencyRequestRepository) list(limit int, match func(*models.EmergencyRequest) bool) []*models.EmergencyRequest {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*models.EmergencyRequest
	for _, req := range r.store.requests {
		if match(req) {
			out = append(out, req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
