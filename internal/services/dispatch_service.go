package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DispatchService interface {
	// Patient
	TriggerSOS(ctx context.Context, client models.ClientPrincipal, input SOSInput) (*SOSResult, error)
	MyRequests(ctx context.Context, client models.ClientPrincipal) ([]*models.EmergencyRequest, error)
	RequestStatus(ctx context.Context, principal models.Principal, requestID primitive.ObjectID) (*models.EmergencyRequest, error)

	// Driver lifecycle
	DriverAccept(ctx context.Context, driver models.DriverPrincipal, requestID primitive.ObjectID) (*DriverAcceptResult, error)
	DriverDecline(ctx context.Context, driver models.DriverPrincipal, requestID primitive.ObjectID) error
	MarkArrivedAtScene(ctx context.Context, driver models.DriverPrincipal, requestID primitive.ObjectID) error
	SubmitAssessment(ctx context.Context, driver models.DriverPrincipal, input AssessmentInput) (*AssessmentResult, error)
	SubmitPickup(ctx context.Context, driver models.DriverPrincipal, input PickupInput) (*PickupResult, error)
	RequestOfferRound(ctx context.Context, driver models.DriverPrincipal, requestID primitive.ObjectID) (*OfferRound, error)
	ArrivedAtHospital(ctx context.Context, driver models.DriverPrincipal, requestID primitive.ObjectID) error

	// Driver presence
	UpdateDriverLocation(ctx context.Context, driverID primitive.ObjectID, location models.LatLng) error
	ToggleAvailability(ctx context.Context, driver models.DriverPrincipal, active bool) (*models.AmbulanceDriver, error)
	NearbyPendingRequests(ctx context.Context, driver models.DriverPrincipal) ([]*models.EmergencyRequest, error)
	RegisterDevice(ctx context.Context, principal models.Principal, device models.Device) error
}

type SOSInput struct {
	Location            *models.LatLng
	Condition           string
	PreliminarySeverity string
	SensorData          models.SensorData
	AutoTriggered       bool
	Contact             string
}

type SOSResult struct {
	RequestID          primitive.ObjectID   `json:"request_id"`
	Status             models.RequestStatus `json:"status"`
	NearbyDriversCount int                  `json:"nearby_drivers_count"`
	TTLSeconds         int                  `json:"ttl_seconds"`
}

type DriverAcceptResult struct {
	RequestID  primitive.ObjectID `json:"request_id"`
	Accepted   bool               `json:"accepted"`
	ETAMinutes int                `json:"eta_minutes,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

type AssessmentInput struct {
	RequestID  primitive.ObjectID
	InjuryRisk string
	Notes      string
	Vitals     *models.Vitals
}

type AssessmentResult struct {
	RequestID         primitive.ObjectID   `json:"request_id"`
	InjuryRisk        models.InjuryLevel   `json:"injury_risk"`
	Status            models.RequestStatus `json:"status"`
	HospitalsNotified int                  `json:"hospitals_notified"`
}

type PickupInput struct {
	RequestID   primitive.ObjectID
	InjuryLevel string
	Notes       string
	Vitals      *models.Vitals
}

type PickupResult struct {
	RequestID         primitive.ObjectID   `json:"request_id"`
	InjuryLevel       models.InjuryLevel   `json:"injury_level"`
	Status            models.RequestStatus `json:"status"`
	HospitalsNotified int                  `json:"hospitals_notified"`
}

const (
	defaultCondition = "other"
	defaultSeverity  = "unknown"

	reasonAlreadyAccepted = "already accepted by another driver"
	reasonOnMission       = "driver is already on an active mission"
)

type dispatchService struct {
	*Dependencies
	offers OfferService
}

func newDispatchService(deps *Dependencies, offers OfferService) *dispatchService {
	return &dispatchService{Dependencies: deps, offers: offers}
}

func escalationKey(requestID primitive.ObjectID) string {
	return "escalation:" + requestID.Hex()
}

func (s *dispatchService) TriggerSOS(ctx context.Context, client models.ClientPrincipal, input SOSInput) (*SOSResult, error) {
	if input.Location == nil {
		return nil, invalid("location", "location (lat, lng) is required")
	}
	if !validLatLng(*input.Location) {
		return nil, invalid("location", "lat must be within [-90, 90] and lng within [-180, 180]")
	}

	condition := strings.TrimSpace(input.Condition)
	if condition == "" {
		condition = defaultCondition
	}
	severity := strings.TrimSpace(input.PreliminarySeverity)
	if severity == "" {
		severity = defaultSeverity
	}
	contact := input.Contact
	if contact == "" {
		contact = client.Phone
	}

	now := s.now()
	request := &models.EmergencyRequest{
		ClientID:            client.ID,
		PatientName:         client.Name,
		PatientContact:      contact,
		BloodGroup:          client.BloodGroup,
		HasMedicalAllergies: client.HasMedicalAllergies,
		EmergencyContact:    client.EmergencyContact,
		Location:            input.Location.GeoPoint(),
		Condition:           condition,
		PreliminarySeverity: severity,
		AutoTriggered:       input.AutoTriggered,
		SensorData:          input.SensorData,
		CreatedAt:           now,
	}
	if err := s.Requests.Create(ctx, request); err != nil {
		return nil, err
	}

	log := s.Logger.WithEmergencyID(request.ID)

	drivers, err := s.Geo.NearestAvailableDrivers(ctx, interfaces.DriverQuery{
		Center:   request.Location,
		RadiusKM: s.Config.Initial.RadiusKM,
		Limit:    s.Config.Initial.Limit,
	})
	if err != nil {
		// The request exists; the escalation pass will search again.
		log.WithError(err).Error("Initial driver search failed")
		drivers = nil
	}

	alert := sosAlert(request, now, false, int(s.Config.AlertTTL.Seconds()))
	for _, driver := range drivers {
		s.emit(ctx, models.DriverRoom(driver.ID), alert)
	}
	s.emit(ctx, models.RoomDrivers, alert)

	requestID := request.ID
	s.Scheduler.Schedule(escalationKey(requestID), s.Config.EscalateAfter, func(ctx context.Context) {
		s.escalate(ctx, requestID)
	})

	s.Contacts.SOSRaised(ctx, request)

	log.LogDispatchEvent(request.ID, "sos_triggered", map[string]interface{}{
		"client_id":      client.ID.Hex(),
		"auto_triggered": input.AutoTriggered,
		"severity":       severity,
		"drivers":        len(drivers),
	})

	return &SOSResult{
		RequestID:          request.ID,
		Status:             models.RequestStatusPending,
		NearbyDriversCount: len(drivers),
		TTLSeconds:         alert.TTLSeconds,
	}, nil
}

// escalate runs the single broadened search for a request nobody accepted.
func (s *dispatchService) escalate(ctx context.Context, requestID primitive.ObjectID) {
	log := s.Logger.WithEmergencyID(requestID)

	request, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		log.WithError(err).Error("Failed to load request for escalation")
		return
	}
	if request.Status != models.RequestStatusPending {
		return
	}

	drivers, err := s.Geo.NearestAvailableDrivers(ctx, interfaces.DriverQuery{
		Center:   request.Location,
		RadiusKM: s.Config.Escalation.RadiusKM,
		Limit:    s.Config.Escalation.Limit,
	})
	if err != nil {
		log.WithError(err).Error("Escalated driver search failed")
		return
	}

	alert := sosAlert(request, s.now(), true, int(s.Config.EscalatedAlertTTL.Seconds()))
	for _, driver := range drivers {
		s.emit(ctx, models.DriverRoom(driver.ID), alert)
	}

	if len(drivers) == 0 {
		log.Warn("Escalation found no available drivers")
	}
	log.LogDispatchEvent(requestID, "sos_escalated", map[string]interface{}{
		"drivers":   len(drivers),
		"radius_km": s.Config.Escalation.RadiusKM,
	})
}

func (s *dispatchService) DriverAccept(ctx context.Context, driver models.DriverPrincipal, requestID primitive.ObjectID) (*DriverAcceptResult, error) {
	request, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, ledgerError(err)
	}

	profile, err := s.Drivers.GetByID(ctx, driver.ID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	vehicle := driver.Vehicle.String()
	var location *models.GeoPoint
	if profile != nil {
		location = profile.Location
		if profile.Vehicle != (models.Vehicle{}) {
			vehicle = profile.Vehicle.String()
		}
	}
	eta := driverETAMinutes(location, request.Location, s.Config.DefaultDriverETAMinutes)

	log := s.Logger.WithEmergencyID(requestID).WithField("driver_id", driver.ID.Hex())
	onMission := &DriverAcceptResult{RequestID: requestID, Accepted: false, Reason: reasonOnMission}

	if active, err := s.Requests.FindActiveByDriver(ctx, driver.ID); err == nil {
		log.WithField("active_request_id", active.ID.Hex()).Info("Driver already on a mission")
		return onMission, nil
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	prior, claimed, err := s.Drivers.ClaimForMission(ctx, driver.ID, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		log.Info("Driver already claimed for a mission")
		return onMission, nil
	}

	won, err := s.Requests.TryAssignDriver(ctx, requestID, interfaces.DriverAssignment{
		DriverID:      driver.ID,
		DriverName:    driver.Name,
		DriverContact: driver.Phone,
		Vehicle:       vehicle,
		ETAMinutes:    eta,
		At:            now,
	})
	if err != nil || !won {
		s.releaseClaim(ctx, driver.ID, prior)
	}
	if err != nil {
		return nil, ledgerError(err)
	}
	if !won {
		log.Info("Driver lost accept race")
		return &DriverAcceptResult{RequestID: requestID, Accepted: false, Reason: reasonAlreadyAccepted}, nil
	}

	s.Scheduler.Cancel(escalationKey(requestID))

	assigned := models.RequestAssignedEvent{
		RequestID:  requestID.Hex(),
		DriverID:   driver.ID.Hex(),
		DriverName: driver.Name,
		Vehicle:    vehicle,
		ETAMinutes: eta,
		Contact:    driver.Phone,
		Status:     models.RequestStatusAccepted,
		Message: fmt.Sprintf("Ambulance driver %s has accepted your request and is on the way. ETA: %d minutes.",
			driver.Name, eta),
	}
	clientRoom := models.ClientRoom(request.ClientID)
	s.emit(ctx, clientRoom, assigned)
	s.emit(ctx, clientRoom, models.DriverAcceptedEvent(assigned))

	s.emit(ctx, models.DriverRoom(driver.ID), models.DriverMissionEvent{
		RequestID:           requestID.Hex(),
		UserName:            request.PatientName,
		UserContact:         request.PatientContact,
		BloodGroup:          request.BloodGroup,
		HasMedicalAllergies: request.HasMedicalAllergies,
		Condition:           request.Condition,
		Lat:                 request.Location.Latitude(),
		Lng:                 request.Location.Longitude(),
		ETAMinutes:          eta,
		Status:              models.RequestStatusAccepted,
	})

	if err := s.Requests.MarkEnroute(ctx, requestID, driver.ID, s.now()); err != nil {
		log.WithError(err).Warn("Failed to mark request enroute")
	}

	s.emit(ctx, models.RoomAdmin, models.IncomingPatientEvent{
		RequestID:      requestID.Hex(),
		DriverName:     driver.Name,
		DriverContact:  driver.Phone,
		Vehicle:        vehicle,
		PatientName:    request.PatientName,
		PatientContact: request.PatientContact,
		Status:         models.RequestStatusEnroute,
		ETAMinutes:     eta,
		Location:       request.Location.LatLng(),
		Message:        fmt.Sprintf("Driver %s is en route to patient", driver.Name),
	})

	log.LogDispatchEvent(requestID, "driver_accepted", map[string]interface{}{
		"driver_id":   driver.ID.Hex(),
		"eta_minutes": eta,
	})

	return &DriverAcceptResult{RequestID: requestID, Accepted: true, ETAMinutes: eta}, nil
}

// releaseClaim hands back a driver claim whose request was lost.
func (s *dispatchService) releaseClaim(ctx context.Context, driverID primitive.ObjectID, prior models.DriverStatus) {
	if prior == "" {
		prior = models.DriverStatusAvailable
	}
	if err := s.Drivers.UpdateStatus(ctx, driverID, prior, s.now()); err != nil {
		s.Logger.WithField("driver_id", driverID.Hex()).WithError(err).Warn("Failed to release driver claim")
	}
}

// DriverDecline records nothing. The driver stays eligible and the request
// stays open for others.
func (s *dispatchService) DriverDecline(ctx context.Context, driver models.DriverPrincipal, requestID primitive.ObjectID) error {
	if _, err := s.Requests.GetByID(ctx, requestID); err != nil {
		return ledgerError(err)
	}
	s.Logger.WithEmergencyID(requestID).WithField("driver_id", driver.ID.Hex()).Info("Driver declined request")
	return nil
}

func (s *dispatchService) MarkArrivedAtScene(ctx context.Context, driver models.DriverPrincipal, requestID primitive.ObjectID) error {
	if err := s.Requests.MarkArrivedAtScene(ctx, requestID, driver.ID, s.now()); err != nil {
		return ledgerError(err)
	}

	request, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return ledgerError(err)
	}
	s.emit(ctx, models.ClientRoom(request.ClientID), models.DriverArrivedEvent{
		RequestID: requestID.Hex(),
		Message:   fmt.Sprintf("%s has arrived at your location", driver.Name),
	})

	s.Logger.LogDispatchEvent(requestID, "arrived_at_scene", map[string]interface{}{"driver_id": driver.ID.Hex()})
	return nil
}

func (s *dispatchService) SubmitAssessment(ctx context.Context, driver models.DriverPrincipal, input AssessmentInput) (*AssessmentResult, error) {
	level, ok := models.ParseInjuryLevel(input.InjuryRisk)
	if !ok {
		return nil, invalid("injury_risk", "must be one of low, medium, high")
	}

	now := s.now()
	err := s.Requests.RecordAssessment(ctx, input.RequestID, driver.ID, interfaces.Assessment{
		InjuryLevel: level,
		Notes:       input.Notes,
		Vitals:      input.Vitals,
		At:          now,
	})
	if err != nil {
		return nil, ledgerError(err)
	}

	request, err := s.Requests.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, ledgerError(err)
	}

	s.emit(ctx, models.RoomAdmin, models.InjuryAssessmentEvent{
		RequestID:   input.RequestID.Hex(),
		InjuryRisk:  level,
		InjuryNotes: input.Notes,
		Vitals:      input.Vitals,
		PatientName: request.PatientName,
		Location:    request.Location.LatLng(),
		DriverID:    driver.ID.Hex(),
		DriverName:  driver.Name,
		Timestamp:   now,
	})
	s.emit(ctx, models.ClientRoom(request.ClientID), models.AssessmentReceivedEvent{
		RequestID:  input.RequestID.Hex(),
		InjuryRisk: level,
		Status:     "Driver has assessed your condition",
		Message:    fmt.Sprintf("Injury Risk Level: %s. Finding nearest hospital...", strings.ToUpper(string(level))),
	})

	s.Logger.LogDispatchEvent(input.RequestID, "assessment_submitted", map[string]interface{}{
		"driver_id":    driver.ID.Hex(),
		"injury_level": level,
	})

	return &AssessmentResult{
		RequestID:         input.RequestID,
		InjuryRisk:        level,
		Status:            models.RequestStatusAssessed,
		HospitalsNotified: s.startOfferRound(ctx, input.RequestID),
	}, nil
}

func (s *dispatchService) SubmitPickup(ctx context.Context, driver models.DriverPrincipal, input PickupInput) (*PickupResult, error) {
	level, ok := models.ParseInjuryLevel(input.InjuryLevel)
	if !ok {
		return nil, invalid("injury_level", "must be one of low, medium, high")
	}

	assessment := interfaces.Assessment{
		InjuryLevel: level,
		Notes:       input.Notes,
		Vitals:      input.Vitals,
		At:          s.now(),
	}
	err := s.Requests.RecordPickup(ctx, input.RequestID, driver.ID, assessment)
	if errors.Is(err, interfaces.ErrPrecondition) {
		// A hospital may accept after assessment, before the pickup.
		if s.Requests.RecordAdmittedPickup(ctx, input.RequestID, driver.ID, assessment) == nil {
			err = nil
		}
	}
	if err != nil {
		return nil, ledgerError(err)
	}

	request, err := s.Requests.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, ledgerError(err)
	}
	level = request.Injury()

	message := "You have been picked up. Finding nearest hospital..."
	if request.HasHospital() {
		message = fmt.Sprintf("You have been picked up. Heading to %s.", request.HospitalName)
	}
	s.emit(ctx, models.ClientRoom(request.ClientID), models.PickedUpEvent{
		RequestID:   input.RequestID.Hex(),
		InjuryLevel: level,
		Status:      request.Status,
		Message:     message,
	})

	s.Logger.LogDispatchEvent(input.RequestID, "picked_up", map[string]interface{}{
		"driver_id":    driver.ID.Hex(),
		"injury_level": level,
		"status":       request.Status,
	})

	result := &PickupResult{
		RequestID:   input.RequestID,
		InjuryLevel: level,
		Status:      request.Status,
	}
	if !request.HasHospital() {
		result.HospitalsNotified = s.startOfferRound(ctx, input.RequestID)
	}
	return result, nil
}

// startOfferRound runs the offer round on behalf of a driver step that has
// already succeeded, so its failure is only logged.
func (s *dispatchService) startOfferRound(ctx context.Context, requestID primitive.ObjectID) int {
	round, err := s.offers.RunOfferRound(ctx, requestID)
	if err != nil {
		s.Logger.WithEmergencyID(requestID).WithError(err).Error("Failed to run offer round")
		return 0
	}
	return len(round.Offers)
}

// RequestOfferRound lets the bound driver ask for a fresh round after
// rejections or expiry. Hospitals are never re-offered automatically.
func (s *dispatchService) RequestOfferRound(ctx context.Context, driver models.DriverPrincipal, requestID primitive.ObjectID) (*OfferRound, error) {
	request, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, ledgerError(err)
	}
	if !request.IsBoundTo(driver.ID) {
		return nil, ErrRequestNotFound
	}
	return s.offers.RunOfferRound(ctx, requestID)
}

func (s *dispatchService) ArrivedAtHospital(ctx context.Context, driver models.DriverPrincipal, requestID primitive.ObjectID) error {
	now := s.now()
	if err := s.Requests.RecordArrival(ctx, requestID, driver.ID, now); err != nil {
		return ledgerError(err)
	}

	log := s.Logger.WithEmergencyID(requestID)

	status := models.DriverStatusAvailable
	if profile, err := s.Drivers.GetByID(ctx, driver.ID); err == nil && !profile.Active {
		status = models.DriverStatusOffline
	}
	if err := s.Drivers.UpdateStatus(ctx, driver.ID, status, now); err != nil {
		log.WithError(err).Warn("Failed to release driver")
	}

	request, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return ledgerError(err)
	}
	if request.HasHospital() {
		s.emit(ctx, models.HospitalRoom(*request.HospitalID), models.ReachedHospitalEvent{
			RequestID: requestID.Hex(),
			Status:    models.RequestStatusArrived,
			Message:   "Ambulance has arrived",
		})
	}
	s.emit(ctx, models.ClientRoom(request.ClientID), models.ReachedHospitalEvent{
		RequestID: requestID.Hex(),
		Status:    models.RequestStatusArrived,
		Message:   "Arrived at hospital",
	})

	log.LogDispatchEvent(requestID, "arrived", map[string]interface{}{"driver_id": driver.ID.Hex()})
	return nil
}

func (s *dispatchService) UpdateDriverLocation(ctx context.Context, driverID primitive.ObjectID, location models.LatLng) error {
	if !validLatLng(location) {
		return invalid("location", "lat must be within [-90, 90] and lng within [-180, 180]")
	}

	now := s.now()
	if err := s.Drivers.UpdateLocation(ctx, driverID, location.GeoPoint(), now); err != nil {
		return err
	}

	update := models.DriverLocationEvent{
		DriverID:  driverID.Hex(),
		Location:  location,
		Timestamp: now,
	}
	s.emit(ctx, models.DriverRoom(driverID), update)

	request, err := s.Requests.FindActiveByDriver(ctx, driverID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	tracked := update
	tracked.RequestID = request.ID.Hex()
	tracked.DriverName = request.DriverName
	tracked.Status = request.Status

	toClient := tracked
	toClient.Vehicle = request.Vehicle
	s.emit(ctx, models.ClientRoom(request.ClientID), toClient)

	if request.HasHospital() {
		toHospital := tracked
		toHospital.PatientName = request.PatientName
		toHospital.InjuryRisk = request.Injury()
		s.emit(ctx, models.HospitalRoom(*request.HospitalID), toHospital)
	}
	return nil
}

// ToggleAvailability flips the active flag. An assigned driver stays
// assigned until the mission completes.
func (s *dispatchService) ToggleAvailability(ctx context.Context, driver models.DriverPrincipal, active bool) (*models.AmbulanceDriver, error) {
	profile, err := s.Drivers.SetAvailability(ctx, &models.AmbulanceDriver{
		ID:        driver.ID,
		Name:      driver.Name,
		Phone:     driver.Phone,
		Vehicle:   driver.Vehicle,
		UpdatedAt: s.now(),
	}, active)
	if err != nil {
		return nil, err
	}

	s.Logger.WithFields(map[string]interface{}{
		"driver_id": driver.ID.Hex(),
		"active":    active,
		"status":    profile.Status,
	}).Info("Driver availability changed")
	return profile, nil
}

func (s *dispatchService) NearbyPendingRequests(ctx context.Context, driver models.DriverPrincipal) ([]*models.EmergencyRequest, error) {
	profile, err := s.Drivers.GetByID(ctx, driver.ID)
	if err != nil {
		return nil, notFoundAs(err, ErrDriverNotFound)
	}
	if profile.Location == nil || !profile.Location.IsSet() {
		return nil, invalid("location", "driver location not set")
	}

	return s.Geo.NearestRequests(ctx, interfaces.RequestQuery{
		Center:   *profile.Location,
		RadiusKM: s.Config.NearbyPatients.RadiusKM,
		Limit:    s.Config.NearbyPatients.Limit,
		Statuses: []models.RequestStatus{models.RequestStatusPending},
	})
}

func (s *dispatchService) RegisterDevice(ctx context.Context, principal models.Principal, device models.Device) error {
	if device.Token == "" {
		return invalid("token", "device token is required")
	}
	if device.Platform != models.DevicePlatformAndroid && device.Platform != models.DevicePlatformIOS {
		return invalid("platform", "must be android or ios")
	}

	switch p := principal.(type) {
	case models.DriverPrincipal:
		return notFoundAs(s.Drivers.RegisterDevice(ctx, p.ID, device), ErrDriverNotFound)
	case models.AdminPrincipal:
		return notFoundAs(s.Hospitals.RegisterDevice(ctx, p.HospitalID, device), ErrHospitalNotFound)
	}
	return ErrForbidden
}

func (s *dispatchService) MyRequests(ctx context.Context, client models.ClientPrincipal) ([]*models.EmergencyRequest, error) {
	return s.Requests.ListByClient(ctx, client.ID)
}

func (s *dispatchService) RequestStatus(ctx context.Context, principal models.Principal, requestID primitive.ObjectID) (*models.EmergencyRequest, error) {
	request, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, ledgerError(err)
	}
	if !canView(principal, request) {
		return nil, ErrForbidden
	}
	return request, nil
}

// canView allows the requesting client, the bound driver and the admins of
// the bound hospital.
func canView(principal models.Principal, request *models.EmergencyRequest) bool {
	switch p := principal.(type) {
	case models.ClientPrincipal:
		return request.ClientID == p.ID
	case models.DriverPrincipal:
		return request.IsBoundTo(p.ID)
	case models.AdminPrincipal:
		return request.HasHospital() && *request.HospitalID == p.HospitalID
	}
	return false
}

func sosAlert(request *models.EmergencyRequest, at time.Time, escalated bool, ttlSeconds int) models.SOSAlertEvent {
	return models.SOSAlertEvent{
		RequestID:           request.ID.Hex(),
		UserID:              request.ClientID.Hex(),
		UserName:            request.PatientName,
		BloodGroup:          request.BloodGroup,
		HasMedicalAllergies: request.HasMedicalAllergies,
		Lat:                 request.Location.Latitude(),
		Lng:                 request.Location.Longitude(),
		Timestamp:           at,
		Condition:           request.Condition,
		PreliminarySeverity: request.PreliminarySeverity,
		SensorData:          request.SensorData,
		AutoTriggered:       request.AutoTriggered,
		Contact:             request.PatientContact,
		Escalated:           escalated,
		TTLSeconds:          ttlSeconds,
	}
}
