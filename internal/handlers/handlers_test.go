package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lifeline/internal/handlers"
	"lifeline/internal/middleware"
	"lifeline/internal/models"
	"lifeline/internal/repositories/memory"
	"lifeline/internal/services"
	"lifeline/internal/utils"
	"lifeline/pkg/logger"
	"lifeline/pkg/notify"
	"lifeline/pkg/scheduler"
	"lifeline/pkg/websocket"
	"lifeline/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const secret = "test-secret"

type api struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
	svc    *services.Services
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *utils.APIError `json:"error"`
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	clock := clockz.NewFakeClock()
	sched := scheduler.New(clock, logger.Discard().Entry())
	t.Cleanup(sched.Stop)

	svc, err := services.New(services.Dependencies{
		Requests:  memory.NewEmergencyRequestRepository(store),
		Drivers:   memory.NewDriverRepository(store),
		Hospitals: memory.NewHospitalRepository(store),
		Offers:    memory.NewOfferRepository(store),
		Geo:       memory.NewGeoIndex(store),
		Bus:       notify.NewRecorder(),
		Clock:     clock,
		Scheduler: sched,
	})
	require.NoError(t, err)

	audit := logger.NewAuditLoggerFrom(logger.Discard())
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	routes.SetupRoutes(router.Group("/api/v1"), routes.Handlers{
		Auth:     handlers.NewAuthHandler(secret, audit),
		Client:   handlers.NewClientHandler(svc.Dispatch, svc.Offers),
		Driver:   handlers.NewDriverHandler(svc.Dispatch),
		Hospital: handlers.NewHospitalHandler(svc.Offers),
		Device:   handlers.NewDeviceHandler(svc.Dispatch),
	}, middleware.AuthRequired(secret, audit))

	return &api{t: t, router: router, store: store, svc: svc}
}

func (a *api) token(claims utils.JWTClaims) string {
	pair, err := utils.GenerateTokenPair(claims, secret)
	require.NoError(a.t, err)
	return pair.AccessToken
}

func (a *api) clientToken() (string, primitive.ObjectID) {
	id := primitive.NewObjectID()
	return a.token(utils.JWTClaims{
		UserID:           id,
		UserType:         utils.UserTypeClient,
		Name:             "Asha Rao",
		EmergencyContact: "+15550199",
	}), id
}

func (a *api) driverToken(name string, lat, lng float64) string {
	id := primitive.NewObjectID()
	loc := models.NewGeoPoint(lat, lng)
	a.store.PutDriver(&models.AmbulanceDriver{
		ID:       id,
		Name:     name,
		Location: &loc,
		Status:   models.DriverStatusAvailable,
		Active:   true,
	})
	return a.token(utils.JWTClaims{UserID: id, UserType: utils.UserTypeDriver, Name: name})
}

func (a *api) hospitalToken(name string, lat, lng float64, capacity models.Capacity) string {
	hospital := &models.Hospital{
		Name:     name,
		Address:  name + " Road",
		Location: models.NewGeoPoint(lat, lng),
		Capacity: capacity,
		Verified: true,
	}
	require.NoError(a.t, memory.NewHospitalRepository(a.store).Create(context.Background(), hospital))
	return a.token(utils.JWTClaims{
		UserID:     primitive.NewObjectID(),
		UserType:   utils.UserTypeAdmin,
		Name:       name + " desk",
		HospitalID: &hospital.ID,
	})
}

func (a *api) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (a *api) raiseSOS(token string) primitive.ObjectID {
	code, env := a.do(http.MethodPost, "/api/v1/client/sos", token, gin.H{
		"location":             gin.H{"lat": 37.422, "lng": -122.085},
		"condition":            "chest_pain",
		"preliminary_severity": "high",
	})
	require.Equal(a.t, http.StatusCreated, code)
	return decode[services.SOSResult](a.t, env).RequestID
}

func TestEmergencyLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	client, _ := a.clientToken()
	first := a.driverToken("Ravi", 37.43, -122.09)
	second := a.driverToken("Meera", 37.44, -122.10)
	hospital := a.hospitalToken("City General", 37.44, -122.08, models.Capacity{ICU: 2, Beds: 5})

	code, env := a.do(http.MethodPost, "/api/v1/client/sos", client, gin.H{
		"location":             gin.H{"lat": 37.422, "lng": -122.085},
		"condition":            "chest_pain",
		"preliminary_severity": "high",
	})
	require.Equal(t, http.StatusCreated, code)
	sos := decode[services.SOSResult](t, env)
	assert.Equal(t, models.RequestStatusPending, sos.Status)
	assert.Equal(t, 30, sos.TTLSeconds)
	assert.Equal(t, 2, sos.NearbyDriversCount)
	requestID := sos.RequestID

	code, env = a.do(http.MethodPost, "/api/v1/driver/accept", first, gin.H{"request_id": requestID})
	require.Equal(t, http.StatusOK, code)
	accepted := decode[services.DriverAcceptResult](t, env)
	assert.True(t, accepted.Accepted)
	assert.GreaterOrEqual(t, accepted.ETAMinutes, 3)

	code, env = a.do(http.MethodPost, "/api/v1/driver/accept", second, gin.H{"request_id": requestID})
	require.Equal(t, http.StatusConflict, code)
	lost := decode[services.DriverAcceptResult](t, env)
	assert.False(t, lost.Accepted)
	assert.Equal(t, "already accepted by another driver", lost.Reason)

	code, env = a.do(http.MethodPost, "/api/v1/driver/assessment", first, gin.H{
		"request_id":   requestID,
		"injury_risk":  "high",
		"injury_notes": "suspected MI",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[services.AssessmentResult](t, env).HospitalsNotified)

	offers, err := memory.NewOfferRepository(a.store).ListByRequest(context.Background(), requestID)
	require.NoError(t, err)
	require.Len(t, offers, 1)

	code, env = a.do(http.MethodPost, "/api/v1/hospital/admission", hospital, gin.H{
		"request_id": requestID,
		"offer_id":   offers[0].ID,
		"action":     "accept",
		"bed_number": "B12",
	})
	require.Equal(t, http.StatusOK, code)
	admission := decode[services.AdmissionResult](t, env)
	assert.Equal(t, string(models.RequestStatusAcceptedByHospital), admission.Status)
	assert.Equal(t, "City General", admission.HospitalName)
	assert.Equal(t, "B12", admission.BedNumber)

	code, env = a.do(http.MethodGet, "/api/v1/requests/"+requestID.Hex(), client, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.RequestStatusAcceptedByHospital, decode[models.EmergencyRequest](t, env).Status)

	code, env = a.do(http.MethodPost, "/api/v1/driver/pickup", first, gin.H{
		"request_id":   requestID,
		"injury_level": "high",
		"notes":        "on oxygen",
	})
	require.Equal(t, http.StatusOK, code)
	pickup := decode[services.PickupResult](t, env)
	assert.Equal(t, models.RequestStatusAcceptedByHospital, pickup.Status)
	assert.Zero(t, pickup.HospitalsNotified)

	code, _ = a.do(http.MethodPost, "/api/v1/driver/arrived-at-hospital", first, gin.H{"request_id": requestID})
	require.Equal(t, http.StatusOK, code)

	code, env = a.do(http.MethodGet, "/api/v1/requests/"+requestID.Hex(), hospital, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.RequestStatusArrived, decode[models.EmergencyRequest](t, env).Status)
}

func TestSOSRequiresLocation(t *testing.T) {
	a := newAPI(t)
	client, _ := a.clientToken()

	code, env := a.do(http.MethodPost, "/api/v1/client/sos", client, gin.H{"condition": "fall"})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, utils.CodeValidation, env.Error.Code)
	assert.Contains(t, env.Error.Details, "location")
}

func TestAuthenticationAndRoles(t *testing.T) {
	a := newAPI(t)
	driver := a.driverToken("Ravi", 37.43, -122.09)

	code, env := a.do(http.MethodPost, "/api/v1/client/sos", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, utils.CodeUnauthorized, env.Error.Code)

	code, _ = a.do(http.MethodPost, "/api/v1/client/sos", "not-a-token", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = a.do(http.MethodPost, "/api/v1/client/sos", driver, gin.H{})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, utils.CodeForbidden, env.Error.Code)
}

func TestAssessmentFromUnboundDriverIsNotFound(t *testing.T) {
	a := newAPI(t)
	client, _ := a.clientToken()
	driver := a.driverToken("Ravi", 37.43, -122.09)
	requestID := a.raiseSOS(client)

	code, env := a.do(http.MethodPost, "/api/v1/driver/assessment", driver, gin.H{
		"request_id":  requestID,
		"injury_risk": "low",
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, utils.CodeNotFound, env.Error.Code)

	code, _ = a.do(http.MethodPost, "/api/v1/driver/assessment", driver, gin.H{"injury_risk": "low"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRequestStatusIsAccessChecked(t *testing.T) {
	a := newAPI(t)
	owner, _ := a.clientToken()
	stranger, _ := a.clientToken()
	requestID := a.raiseSOS(owner)

	code, _ := a.do(http.MethodGet, "/api/v1/requests/"+requestID.Hex(), stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodGet, "/api/v1/requests/not-an-id", owner, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodGet, "/api/v1/requests/"+primitive.NewObjectID().Hex(), owner, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env := a.do(http.MethodGet, "/api/v1/client/requests", owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.EmergencyRequest](t, env), 1)
}

func TestForwardOnlyTransitionIsConflict(t *testing.T) {
	a := newAPI(t)
	client, _ := a.clientToken()
	driver := a.driverToken("Ravi", 37.43, -122.09)
	requestID := a.raiseSOS(client)

	code, _ := a.do(http.MethodPost, "/api/v1/driver/accept", driver, gin.H{"request_id": requestID})
	require.Equal(t, http.StatusOK, code)

	code, env := a.do(http.MethodPost, "/api/v1/driver/arrived-at-hospital", driver, gin.H{"request_id": requestID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, utils.CodeConflict, env.Error.Code)
}

func TestAdmissionByForeignHospitalIsForbidden(t *testing.T) {
	a := newAPI(t)
	client, _ := a.clientToken()
	driver := a.driverToken("Ravi", 37.43, -122.09)
	a.hospitalToken("City General", 37.44, -122.08, models.Capacity{Beds: 3})
	foreign := a.hospitalToken("Far Away", 40.7, -74.0, models.Capacity{Beds: 3})
	requestID := a.raiseSOS(client)

	a.do(http.MethodPost, "/api/v1/driver/accept", driver, gin.H{"request_id": requestID})
	code, _ := a.do(http.MethodPost, "/api/v1/driver/pickup", driver, gin.H{
		"request_id":   requestID,
		"injury_level": "medium",
	})
	require.Equal(t, http.StatusOK, code)

	offers, err := memory.NewOfferRepository(a.store).ListByRequest(context.Background(), requestID)
	require.NoError(t, err)
	require.Len(t, offers, 1)

	code, _ = a.do(http.MethodPost, "/api/v1/hospital/admission", foreign, gin.H{
		"request_id": requestID,
		"offer_id":   offers[0].ID,
		"action":     "accept",
	})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestNearbyHospitalsNeedsCoordinates(t *testing.T) {
	a := newAPI(t)
	a.hospitalToken("City General", 37.44, -122.08, models.Capacity{Beds: 3})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/nearby?lat=37.42", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/nearby?lat=37.42&lng=-122.08", nil)
	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Len(t, decode[[]models.Hospital](t, env), 1)
}

func TestDriverPresenceEndpoints(t *testing.T) {
	a := newAPI(t)
	driver := a.driverToken("Ravi", 37.43, -122.09)

	code, env := a.do(http.MethodPut, "/api/v1/driver/availability", driver, gin.H{"active": false})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.DriverStatusOffline, decode[models.AmbulanceDriver](t, env).Status)

	code, _ = a.do(http.MethodPut, "/api/v1/driver/availability", driver, gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodPut, "/api/v1/driver/location", driver, gin.H{"lat": 37.5, "lng": -122.1})
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = a.do(http.MethodPut, "/api/v1/driver/location", driver, gin.H{"lat": 95, "lng": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodPost, "/api/v1/devices", driver, gin.H{"token": "fcm-token", "platform": "android"})
	assert.Equal(t, http.StatusOK, code)
}

func TestSocketIdentityAndLocationFrames(t *testing.T) {
	a := newAPI(t)
	driverToken := a.driverToken("Ravi", 37.43, -122.09)
	sockets := handlers.NewSocketHandler(a.svc.Dispatch, secret, logger.Discard())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/ws?token="+driverToken, nil)
	identity, ok := sockets.Identify(c)
	require.True(t, ok)
	assert.Equal(t, string(models.RoleDriver), identity.Role)
	assert.Contains(t, identity.Rooms, models.RoomDrivers)

	c.Request = httptest.NewRequest(http.MethodGet, "/ws", nil)
	_, ok = sockets.Identify(c)
	assert.False(t, ok)

	hub := websocket.NewHub(logger.Discard().Entry())
	client := websocket.NewClient(hub, nil, identity, nil)
	sockets.OnMessage(context.Background(), client, websocket.Message{
		Type: "location_update",
		Data: json.RawMessage(`{"lat": 37.5, "lng": -122.1}`),
	})

	driverID, err := primitive.ObjectIDFromHex(identity.ID)
	require.NoError(t, err)
	driver, err := memory.NewDriverRepository(a.store).GetByID(context.Background(), driverID)
	require.NoError(t, err)
	assert.InDelta(t, 37.5, driver.Location.Latitude(), 1e-9)
}
