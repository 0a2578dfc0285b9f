package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRequest(t *testing.T, repo interfaces.EmergencyRequestRepository) *models.EmergencyRequest {
	t.Helper()
	request := &models.EmergencyRequest{
		ClientID:    primitive.NewObjectID(),
		PatientName: "Asha",
		Location:    models.NewGeoPoint(37.422, -122.085),
		Status:      models.RequestStatusArrived, // ignored by Create
	}
	require.NoError(t, repo.Create(context.Background(), request))
	return request
}

func TestCreateStartsPending(t *testing.T) {
	repo := NewEmergencyRequestRepository(NewStore())
	request := newRequest(t, repo)

	stored, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, stored.Status)
	assert.False(t, stored.CreatedAt.IsZero())

	_, err = repo.GetByID(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestStoredRequestsAreIsolatedFromCallers(t *testing.T) {
	repo := NewEmergencyRequestRepository(NewStore())
	request := newRequest(t, repo)

	stored, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	stored.Status = models.RequestStatusArrived
	stored.Location.Coordinates[0] = 0

	again, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, again.Status)
	assert.InDelta(t, -122.085, again.Location.Longitude(), 1e-9)
}

func TestTryAssignDriverSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewEmergencyRequestRepository(NewStore())
	request := newRequest(t, repo)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := repo.TryAssignDriver(ctx, request.ID, interfaces.DriverAssignment{
				DriverID: primitive.NewObjectID(),
				At:       time.Now(),
			})
			assert.NoError(t, err)
			if won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, stored.Status)
	assert.NotNil(t, stored.DriverID)

	_, err = repo.TryAssignDriver(ctx, primitive.NewObjectID(), interfaces.DriverAssignment{})
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestTryAssignHospitalSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewEmergencyRequestRepository(NewStore())
	request := newRequest(t, repo)
	driverID := primitive.NewObjectID()

	// Not triaged yet.
	won, err := repo.TryAssignHospital(ctx, request.ID, interfaces.HospitalAssignment{HospitalID: primitive.NewObjectID()})
	assert.ErrorIs(t, err, interfaces.ErrPrecondition)
	assert.False(t, won)

	_, err = repo.TryAssignDriver(ctx, request.ID, interfaces.DriverAssignment{DriverID: driverID, At: time.Now()})
	require.NoError(t, err)
	require.NoError(t, repo.RecordAssessment(ctx, request.ID, driverID, interfaces.Assessment{InjuryLevel: models.InjuryLevelHigh, At: time.Now()}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := repo.TryAssignHospital(ctx, request.ID, interfaces.HospitalAssignment{
				HospitalID: primitive.NewObjectID(),
				At:         time.Now(),
			})
			assert.NoError(t, err)
			if won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAcceptedByHospital, stored.Status)
	assert.True(t, stored.HasHospital())
}

func TestTransitionsRequireOwnerAndSourceStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewEmergencyRequestRepository(NewStore())
	request := newRequest(t, repo)
	driverID := primitive.NewObjectID()
	now := time.Now()

	assert.ErrorIs(t, repo.MarkEnroute(ctx, request.ID, driverID, now), interfaces.ErrNotFound)

	_, err := repo.TryAssignDriver(ctx, request.ID, interfaces.DriverAssignment{DriverID: driverID, At: now})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.MarkEnroute(ctx, request.ID, primitive.NewObjectID(), now), interfaces.ErrNotFound)
	require.NoError(t, repo.MarkEnroute(ctx, request.ID, driverID, now))
	assert.ErrorIs(t, repo.MarkEnroute(ctx, request.ID, driverID, now), interfaces.ErrPrecondition)
	assert.ErrorIs(t, repo.RecordArrival(ctx, request.ID, driverID, now), interfaces.ErrPrecondition)

	vitals := &models.Vitals{BloodPressure: "120/80"}
	require.NoError(t, repo.RecordPickup(ctx, request.ID, driverID, interfaces.Assessment{
		InjuryLevel: models.InjuryLevelMedium,
		Notes:       "stable",
		Vitals:      vitals,
		At:          now,
	}))

	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusInTransit, stored.Status)
	assert.Equal(t, models.InjuryLevelMedium, stored.Injury())
	assert.Equal(t, "stable", stored.DriverNotes)
	assert.Equal(t, "120/80", stored.Vitals.BloodPressure)
	assert.NotNil(t, stored.PickedUpAt)
}

func TestFindActiveByDriver(t *testing.T) {
	ctx := context.Background()
	repo := NewEmergencyRequestRepository(NewStore())
	driverID := primitive.NewObjectID()

	_, err := repo.FindActiveByDriver(ctx, driverID)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	request := newRequest(t, repo)
	_, err = repo.TryAssignDriver(ctx, request.ID, interfaces.DriverAssignment{DriverID: driverID, At: time.Now()})
	require.NoError(t, err)

	active, err := repo.FindActiveByDriver(ctx, driverID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, active.ID)
}

func TestGeoIndexRanksAvailableDrivers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	geo := NewGeoIndex(store)

	put := func(lat, lng float64, status models.DriverStatus, active bool) primitive.ObjectID {
		loc := models.NewGeoPoint(lat, lng)
		id := primitive.NewObjectID()
		store.PutDriver(&models.AmbulanceDriver{ID: id, Location: &loc, Status: status, Active: active})
		return id
	}
	second := put(37.45, -122.085, models.DriverStatusAvailable, true)
	first := put(37.43, -122.085, models.DriverStatusAvailable, true)
	put(37.423, -122.085, models.DriverStatusAssigned, true)
	put(37.423, -122.085, models.DriverStatusAvailable, false)
	put(38.0, -122.085, models.DriverStatusAvailable, true)
	store.PutDriver(&models.AmbulanceDriver{ID: primitive.NewObjectID(), Status: models.DriverStatusAvailable, Active: true})

	drivers, err := geo.NearestAvailableDrivers(ctx, interfaces.DriverQuery{
		Center:   models.NewGeoPoint(37.422, -122.085),
		RadiusKM: 20,
		Limit:    3,
	})
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, first, drivers[0].ID)
	assert.Equal(t, second, drivers[1].ID)

	drivers, err = geo.NearestAvailableDrivers(ctx, interfaces.DriverQuery{
		Center:   models.NewGeoPoint(37.422, -122.085),
		RadiusKM: 20,
		Limit:    1,
	})
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, first, drivers[0].ID)
}

func TestGeoIndexHospitalCapacityFilters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	hospitals := NewHospitalRepository(store)
	geo := NewGeoIndex(store)

	icu := &models.Hospital{Name: "ICU", Location: models.NewGeoPoint(37.45, -122.1), Capacity: models.Capacity{ICU: 1}, Verified: true}
	beds := &models.Hospital{Name: "Beds", Location: models.NewGeoPoint(37.43, -122.1), Capacity: models.Capacity{Beds: 2}, Verified: true}
	require.NoError(t, hospitals.Create(ctx, icu))
	require.NoError(t, hospitals.Create(ctx, beds))

	center := models.NewGeoPoint(37.422, -122.085)
	got, err := geo.NearestHospitals(ctx, interfaces.HospitalQuery{Center: center, RadiusKM: 50, Limit: 3, RequireICU: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, icu.ID, got[0].ID)

	got, err = geo.NearestHospitals(ctx, interfaces.HospitalQuery{Center: center, RadiusKM: 50, Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, beds.ID, got[0].ID)
}

func TestDecrementCapacityNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	hospitals := NewHospitalRepository(NewStore())
	h := &models.Hospital{Name: "City", Capacity: models.Capacity{ICU: 1, Beds: 0}}
	require.NoError(t, hospitals.Create(ctx, h))

	taken, err := hospitals.DecrementCapacity(ctx, h.ID, models.InjuryLevelHigh)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = hospitals.DecrementCapacity(ctx, h.ID, models.InjuryLevelHigh)
	require.NoError(t, err)
	assert.False(t, taken)
	taken, err = hospitals.DecrementCapacity(ctx, h.ID, models.InjuryLevelMedium)
	require.NoError(t, err)
	assert.False(t, taken)
	taken, err = hospitals.DecrementCapacity(ctx, h.ID, models.InjuryLevelLow)
	require.NoError(t, err)
	assert.False(t, taken)

	stored, err := hospitals.GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Capacity{}, stored.Capacity)
}

func TestClaimForMissionIsExclusive(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	drivers := NewDriverRepository(store)
	id := primitive.NewObjectID()
	store.PutDriver(&models.AmbulanceDriver{ID: id, Status: models.DriverStatusOffline})
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prior, claimed, err := drivers.ClaimForMission(ctx, id, now)
			assert.NoError(t, err)
			if claimed {
				atomic.AddInt32(&wins, 1)
				assert.Equal(t, models.DriverStatusOffline, prior)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)

	stored, err := drivers.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.DriverStatusAssigned, stored.Status)

	// Unknown drivers get a profile created assigned.
	fresh := primitive.NewObjectID()
	prior, claimed, err := drivers.ClaimForMission(ctx, fresh, now)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Empty(t, prior)
	stored, err = drivers.GetByID(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, models.DriverStatusAssigned, stored.Status)
}

func TestRecordAdmittedPickupOnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewEmergencyRequestRepository(NewStore())
	request := newRequest(t, repo)
	driverID := primitive.NewObjectID()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	assessment := interfaces.Assessment{InjuryLevel: models.InjuryLevelLow, Notes: "stable", At: now}

	won, err := repo.TryAssignDriver(ctx, request.ID, interfaces.DriverAssignment{DriverID: driverID, At: now})
	require.NoError(t, err)
	require.True(t, won)
	assert.ErrorIs(t, repo.RecordAdmittedPickup(ctx, request.ID, driverID, assessment), interfaces.ErrPrecondition)

	require.NoError(t, repo.RecordAssessment(ctx, request.ID, driverID, interfaces.Assessment{InjuryLevel: models.InjuryLevelHigh, At: now}))
	won, err = repo.TryAssignHospital(ctx, request.ID, interfaces.HospitalAssignment{HospitalID: primitive.NewObjectID(), At: now})
	require.NoError(t, err)
	require.True(t, won)

	assert.ErrorIs(t, repo.RecordAdmittedPickup(ctx, request.ID, primitive.NewObjectID(), assessment), interfaces.ErrNotFound)
	require.NoError(t, repo.RecordAdmittedPickup(ctx, request.ID, driverID, assessment))
	assert.ErrorIs(t, repo.RecordAdmittedPickup(ctx, request.ID, driverID, assessment), interfaces.ErrPrecondition)

	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAcceptedByHospital, stored.Status)
	assert.Equal(t, models.InjuryLevelHigh, stored.Injury())
	require.NotNil(t, stored.PickedUpAt)
	assert.Equal(t, now, *stored.PickedUpAt)
	assert.Equal(t, "stable", stored.DriverNotes)
}

func TestOfferResolveAndExpire(t *testing.T) {
	ctx := context.Background()
	offers := NewOfferRepository(NewStore())
	requestID := primitive.NewObjectID()
	now := time.Now()

	batch := []*models.AdmissionOffer{
		{RequestID: requestID, HospitalID: primitive.NewObjectID(), Round: 1, Status: models.OfferStatusPending},
		{RequestID: requestID, HospitalID: primitive.NewObjectID(), Round: 1, Status: models.OfferStatusPending},
		{RequestID: requestID, HospitalID: primitive.NewObjectID(), Round: 2, Status: models.OfferStatusPending},
		{RequestID: primitive.NewObjectID(), HospitalID: primitive.NewObjectID(), Round: 1, Status: models.OfferStatusPending},
	}
	require.NoError(t, offers.CreateMany(ctx, batch))

	ok, err := offers.Resolve(ctx, batch[0].ID, models.OfferStatusAccepted, now)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = offers.Resolve(ctx, batch[0].ID, models.OfferStatusRejected, now)
	require.NoError(t, err)
	assert.False(t, ok)

	expired, err := offers.ExpirePending(ctx, interfaces.OfferFilter{RequestID: requestID, Round: 1}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	expired, err = offers.ExpirePending(ctx, interfaces.OfferFilter{RequestID: requestID, ExcludeID: &batch[2].ID}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), expired)

	list, err := offers.ListByRequest(ctx, requestID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	status := map[primitive.ObjectID]models.OfferStatus{}
	for _, o := range list {
		status[o.ID] = o.Status
	}
	assert.Equal(t, models.OfferStatusAccepted, status[batch[0].ID])
	assert.Equal(t, models.OfferStatusExpired, status[batch[1].ID])
	assert.Equal(t, models.OfferStatusPending, status[batch[2].ID])
	assert.Equal(t, 2, list[2].Round)

	other, err := offers.GetByID(ctx, batch[3].ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusPending, other.Status)
}
