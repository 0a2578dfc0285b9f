package services

import (
	"context"
	"fmt"
	"strings"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OfferService interface {
	// RunOfferRound offers the patient to the nearest suitable hospitals.
	// While a round is active for the request, a second call returns the
	// active round with Skipped set instead of creating a new batch.
	RunOfferRound(ctx context.Context, requestID primitive.ObjectID) (*OfferRound, error)
	ConfirmAdmission(ctx context.Context, admin models.AdminPrincipal, input AdmissionInput) (*AdmissionResult, error)

	UpdateCapacity(ctx context.Context, admin models.AdminPrincipal, capacity models.Capacity) (*models.Hospital, error)
	Dashboard(ctx context.Context, admin models.AdminPrincipal) ([]*DashboardEntry, error)
	NearbyHospitals(ctx context.Context, location models.LatLng) ([]*models.Hospital, error)
}

type OfferRound struct {
	RequestID primitive.ObjectID       `json:"request_id"`
	Round     int                      `json:"round"`
	Offers    []*models.AdmissionOffer `json:"offers"`
	Skipped   bool                     `json:"skipped,omitempty"`
	Degraded  bool                     `json:"degraded,omitempty"`
}

type AdmissionAction string

const (
	AdmissionAccept AdmissionAction = "accept"
	AdmissionReject AdmissionAction = "reject"

	AdmissionStatusConflict = "conflict"
	AdmissionStatusRejected = "rejected"
)

type AdmissionInput struct {
	RequestID primitive.ObjectID
	OfferID   primitive.ObjectID
	Action    AdmissionAction
	BedNumber string
	Dock      string
}

type AdmissionResult struct {
	RequestID    primitive.ObjectID `json:"request_id"`
	Status       string             `json:"status"`
	HospitalName string             `json:"hospital_name,omitempty"`
	BedNumber    string             `json:"bed_number,omitempty"`
	Dock         string             `json:"dock,omitempty"`
	Message      string             `json:"message,omitempty"`
}

// Won reports whether the hospital now holds the request.
func (r *AdmissionResult) Won() bool {
	return r.Status == string(models.RequestStatusAcceptedByHospital)
}

// DashboardEntry is an inbound request with the ambulance's live position.
type DashboardEntry struct {
	*models.EmergencyRequest
	DriverLocation *models.LatLng `json:"driver_location,omitempty"`
}

type offerService struct {
	*Dependencies
}

func newOfferService(deps *Dependencies) *offerService {
	return &offerService{Dependencies: deps}
}

func offerExpiryKey(requestID primitive.ObjectID, round int) string {
	return fmt.Sprintf("offer_expiry:%s:%d", requestID.Hex(), round)
}

func (s *offerService) RunOfferRound(ctx context.Context, requestID primitive.ObjectID) (*OfferRound, error) {
	request, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, ledgerError(err)
	}
	if request.HasHospital() || !request.Status.In(models.RequestStatusAssessed, models.RequestStatusInTransit) {
		return nil, ErrInvalidTransition
	}

	log := s.Logger.WithEmergencyID(requestID)

	next, err := s.nextRound(ctx, requestID)
	if err != nil {
		return nil, err
	}
	acquired, err := s.Guard.Acquire(ctx, requestID, next, s.Config.OfferTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		log.Info("Offer round already active")
		return s.activeRound(ctx, requestID)
	}

	round, err := s.openRound(ctx, request, next)
	if err != nil || len(round.Offers) == 0 {
		if releaseErr := s.Guard.Release(ctx, requestID, next); releaseErr != nil {
			log.WithError(releaseErr).Warn("Failed to release offer round guard")
		}
	}
	return round, err
}

// nextRound numbers a new round one past every round already offered.
func (s *offerService) nextRound(ctx context.Context, requestID primitive.ObjectID) (int, error) {
	existing, err := s.Offers.ListByRequest(ctx, requestID)
	if err != nil {
		return 0, err
	}
	next := 1
	for _, offer := range existing {
		if offer.Round >= next {
			next = offer.Round + 1
		}
	}
	return next, nil
}

func (s *offerService) openRound(ctx context.Context, request *models.EmergencyRequest, number int) (*OfferRound, error) {
	log := s.Logger.WithEmergencyID(request.ID)

	ambulance := request.Location
	if request.DriverID != nil {
		driver, err := s.Drivers.GetByID(ctx, *request.DriverID)
		if err == nil && driver.Location != nil && driver.Location.IsSet() {
			ambulance = *driver.Location
		}
	}

	level := request.Injury()
	query := interfaces.HospitalQuery{
		Center:      ambulance,
		RadiusKM:    s.Config.HospitalSearch.RadiusKM,
		Limit:       s.Config.HospitalSearch.Limit,
		RequireICU:  level == models.InjuryLevelHigh,
		RequireBeds: level == models.InjuryLevelMedium,
	}
	hospitals, err := s.Geo.NearestHospitals(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &OfferRound{RequestID: request.ID}
	if len(hospitals) == 0 && (query.RequireICU || query.RequireBeds) {
		query.RequireICU, query.RequireBeds = false, false
		if hospitals, err = s.Geo.NearestHospitals(ctx, query); err != nil {
			return nil, err
		}
		result.Degraded = true
		log.WithField("injury_level", level).Warn("No hospital with matching capacity, widening search")
	}
	if len(hospitals) == 0 {
		log.Warn("No hospitals found for admission offers")
		return result, nil
	}

	result.Round = number

	now := s.now()
	expiresAt := now.Add(s.Config.OfferTTL)
	for _, hospital := range hospitals {
		result.Offers = append(result.Offers, &models.AdmissionOffer{
			ID:         primitive.NewObjectID(),
			RequestID:  request.ID,
			HospitalID: hospital.ID,
			Round:      result.Round,
			Status:     models.OfferStatusPending,
			ETAMinutes: hospitalETAMinutes(ambulance, hospital.Location),
			CreatedAt:  now,
			ExpiresAt:  expiresAt,
		})
	}
	if err := s.Offers.CreateMany(ctx, result.Offers); err != nil {
		return nil, err
	}

	requestID, round := request.ID, result.Round
	s.Scheduler.Schedule(offerExpiryKey(requestID, round), s.Config.OfferTTL, func(ctx context.Context) {
		s.expireRound(ctx, requestID, round)
	})

	ttl := int(s.Config.OfferTTL.Seconds())
	for _, offer := range result.Offers {
		s.emit(ctx, models.HospitalRoom(offer.HospitalID), admissionOffer(request, offer, ttl))
	}

	log.LogDispatchEvent(request.ID, "offer_round_opened", map[string]interface{}{
		"round":     round,
		"hospitals": len(result.Offers),
		"degraded":  result.Degraded,
	})
	return result, nil
}

// activeRound reports the newest round that still has pending offers.
func (s *offerService) activeRound(ctx context.Context, requestID primitive.ObjectID) (*OfferRound, error) {
	offers, err := s.Offers.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	result := &OfferRound{RequestID: requestID, Skipped: true}
	for _, offer := range offers {
		if offer.Status != models.OfferStatusPending {
			continue
		}
		if offer.Round > result.Round {
			result.Round = offer.Round
			result.Offers = result.Offers[:0]
		}
		if offer.Round == result.Round {
			result.Offers = append(result.Offers, offer)
		}
	}
	return result, nil
}

// expireRound closes a round nobody answered in time. Nothing is re-offered;
// the driver asks for a new round.
func (s *offerService) expireRound(ctx context.Context, requestID primitive.ObjectID, round int) {
	log := s.Logger.WithEmergencyID(requestID).WithField("round", round)

	expired, err := s.Offers.ExpirePending(ctx, interfaces.OfferFilter{RequestID: requestID, Round: round}, s.now())
	if err != nil {
		log.WithError(err).Error("Failed to expire admission offers")
	}
	if err := s.Guard.Release(ctx, requestID, round); err != nil {
		log.WithError(err).Warn("Failed to release offer round guard")
	}
	if expired > 0 {
		log.LogDispatchEvent(requestID, "offers_expired", map[string]interface{}{
			"round":   round,
			"expired": expired,
		})
	}
}

func (s *offerService) ConfirmAdmission(ctx context.Context, admin models.AdminPrincipal, input AdmissionInput) (*AdmissionResult, error) {
	if input.Action != AdmissionAccept && input.Action != AdmissionReject {
		return nil, invalid("action", "must be accept or reject")
	}
	if input.OfferID.IsZero() {
		return nil, invalid("offer_id", "offer_id is required")
	}

	offer, err := s.Offers.GetByID(ctx, input.OfferID)
	if err != nil {
		return nil, notFoundAs(err, ErrOfferNotFound)
	}
	if offer.RequestID != input.RequestID {
		return nil, ErrOfferNotFound
	}
	if offer.HospitalID != admin.HospitalID {
		return nil, ErrForbidden
	}

	now := s.now()
	switch {
	case offer.Status == models.OfferStatusExpired:
		return nil, ErrOfferExpired
	case offer.Status != models.OfferStatusPending:
		return nil, ErrOfferClosed
	case offer.IsExpiredAt(now):
		if _, err := s.Offers.Resolve(ctx, offer.ID, models.OfferStatusExpired, now); err != nil {
			return nil, err
		}
		return nil, ErrOfferExpired
	}

	request, err := s.Requests.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, ledgerError(err)
	}

	if input.Action == AdmissionReject {
		return s.reject(ctx, admin, request, offer)
	}
	return s.accept(ctx, admin, request, offer, input)
}

func (s *offerService) accept(ctx context.Context, admin models.AdminPrincipal, request *models.EmergencyRequest, offer *models.AdmissionOffer, input AdmissionInput) (*AdmissionResult, error) {
	hospital, err := s.Hospitals.GetByID(ctx, admin.HospitalID)
	if err != nil {
		return nil, notFoundAs(err, ErrHospitalNotFound)
	}

	now := s.now()
	won, err := s.Requests.TryAssignHospital(ctx, request.ID, interfaces.HospitalAssignment{
		HospitalID:   hospital.ID,
		HospitalName: hospital.Name,
		BedNumber:    input.BedNumber,
		ArrivalDock:  input.Dock,
		At:           now,
	})
	if err != nil {
		return nil, ledgerError(err)
	}

	s.Audit.LogAdmissionDecision(request.ID, hospital.ID, offer.ID, string(AdmissionAccept), won)

	log := s.Logger.WithEmergencyID(request.ID).WithField("hospital_id", hospital.ID.Hex())
	if !won {
		log.Info("Hospital lost admission race")
		return &AdmissionResult{
			RequestID: request.ID,
			Status:    AdmissionStatusConflict,
			Message:   "another hospital has already accepted this patient",
		}, nil
	}

	if ok, err := s.Offers.Resolve(ctx, offer.ID, models.OfferStatusAccepted, now); err != nil || !ok {
		log.WithField("resolved", ok).Warn("Winning offer was no longer pending")
	}
	if _, err := s.Offers.ExpirePending(ctx, interfaces.OfferFilter{RequestID: request.ID, ExcludeID: &offer.ID}, now); err != nil {
		log.WithError(err).Warn("Failed to close sibling offers")
	}
	s.Scheduler.Cancel(offerExpiryKey(request.ID, offer.Round))
	if err := s.Guard.Release(ctx, request.ID, offer.Round); err != nil {
		log.WithError(err).Warn("Failed to release offer round guard")
	}

	level := request.Injury()
	taken, err := s.Hospitals.DecrementCapacity(ctx, hospital.ID, level)
	if err != nil {
		log.WithError(err).Warn("Failed to update hospital capacity")
	}
	s.Audit.LogCapacityChange(hospital.ID, "admission", map[string]interface{}{
		"request_id":   request.ID.Hex(),
		"injury_level": level,
		"taken":        taken,
	})

	confirmed := models.HospitalConfirmedEvent{
		RequestID:       request.ID.Hex(),
		HospitalID:      hospital.ID.Hex(),
		HospitalName:    hospital.Name,
		HospitalAddress: hospital.Address,
		BedNumber:       input.BedNumber,
		Dock:            input.Dock,
		Status:          models.RequestStatusAcceptedByHospital,
		Message:         admissionMessage(hospital, input),
	}
	if request.DriverID != nil {
		s.emit(ctx, models.DriverRoom(*request.DriverID), confirmed)
	}
	clientRoom := models.ClientRoom(request.ClientID)
	s.emit(ctx, clientRoom, confirmed)
	s.emit(ctx, clientRoom, models.HospitalAcceptedEvent(confirmed))

	s.Contacts.AdmissionConfirmed(ctx, request, hospital)

	log.LogDispatchEvent(request.ID, "hospital_accepted", map[string]interface{}{
		"hospital_id": hospital.ID.Hex(),
		"offer_id":    offer.ID.Hex(),
		"round":       offer.Round,
	})

	return &AdmissionResult{
		RequestID:    request.ID,
		Status:       string(models.RequestStatusAcceptedByHospital),
		HospitalName: hospital.Name,
		BedNumber:    input.BedNumber,
		Dock:         input.Dock,
		Message:      confirmed.Message,
	}, nil
}

// reject closes one offer. The request keeps waiting on the rest of the
// round; once none are left the guard is released so the driver can ask
// for another round.
func (s *offerService) reject(ctx context.Context, admin models.AdminPrincipal, request *models.EmergencyRequest, offer *models.AdmissionOffer) (*AdmissionResult, error) {
	ok, err := s.Offers.Resolve(ctx, offer.ID, models.OfferStatusRejected, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOfferClosed
	}

	s.Audit.LogAdmissionDecision(request.ID, admin.HospitalID, offer.ID, string(AdmissionReject), false)

	if request.DriverID != nil {
		s.emit(ctx, models.DriverRoom(*request.DriverID), models.HospitalRejectedEvent{
			RequestID:  request.ID.Hex(),
			HospitalID: admin.HospitalID.Hex(),
			Message:    "Hospital declined. Awaiting other hospitals.",
		})
	}

	log := s.Logger.WithEmergencyID(request.ID).WithField("hospital_id", admin.HospitalID.Hex())
	if s.roundExhausted(ctx, request.ID, offer.Round) {
		s.Scheduler.Cancel(offerExpiryKey(request.ID, offer.Round))
		if err := s.Guard.Release(ctx, request.ID, offer.Round); err != nil {
			log.WithError(err).Warn("Failed to release offer round guard")
		}
		log.Info("Every hospital in the round declined")
	}

	return &AdmissionResult{RequestID: request.ID, Status: AdmissionStatusRejected}, nil
}

func (s *offerService) roundExhausted(ctx context.Context, requestID primitive.ObjectID, round int) bool {
	offers, err := s.Offers.ListByRequest(ctx, requestID)
	if err != nil {
		return false
	}
	for _, offer := range offers {
		if offer.Round == round && offer.Status == models.OfferStatusPending {
			return false
		}
	}
	return true
}

func (s *offerService) UpdateCapacity(ctx context.Context, admin models.AdminPrincipal, capacity models.Capacity) (*models.Hospital, error) {
	if capacity.ICU < 0 || capacity.Beds < 0 || capacity.Doctors < 0 {
		return nil, invalid("capacity", "counters must not be negative")
	}
	if err := s.Hospitals.UpdateCapacity(ctx, admin.HospitalID, capacity, s.now()); err != nil {
		return nil, notFoundAs(err, ErrHospitalNotFound)
	}

	s.Audit.LogCapacityChange(admin.HospitalID, "manual_update", map[string]interface{}{
		"admin_id": admin.ID.Hex(),
		"icu":      capacity.ICU,
		"beds":     capacity.Beds,
		"doctors":  capacity.Doctors,
	})

	hospital, err := s.Hospitals.GetByID(ctx, admin.HospitalID)
	if err != nil {
		return nil, notFoundAs(err, ErrHospitalNotFound)
	}
	return hospital, nil
}

func (s *offerService) Dashboard(ctx context.Context, admin models.AdminPrincipal) ([]*DashboardEntry, error) {
	hospital, err := s.Hospitals.GetByID(ctx, admin.HospitalID)
	if err != nil {
		return nil, notFoundAs(err, ErrHospitalNotFound)
	}

	limit := s.Config.HospitalDashboard.Limit
	var requests []*models.EmergencyRequest
	if hospital.Location.IsSet() {
		requests, err = s.Geo.NearestRequests(ctx, interfaces.RequestQuery{
			Center:   hospital.Location,
			RadiusKM: s.Config.HospitalDashboard.RadiusKM,
			Limit:    limit,
			Statuses: models.InboundStatuses,
		})
		if err != nil {
			return nil, err
		}
	}

	if len(requests) < limit {
		recent, err := s.Requests.ListByStatus(ctx, models.InboundStatuses, limit)
		if err != nil {
			return nil, err
		}
		seen := make(map[primitive.ObjectID]bool, len(requests))
		for _, r := range requests {
			seen[r.ID] = true
		}
		for _, r := range recent {
			if len(requests) >= limit {
				break
			}
			if !seen[r.ID] {
				requests = append(requests, r)
				seen[r.ID] = true
			}
		}
	}

	entries := make([]*DashboardEntry, 0, len(requests))
	for _, r := range requests {
		entry := &DashboardEntry{EmergencyRequest: r}
		if r.DriverID != nil {
			if driver, err := s.Drivers.GetByID(ctx, *r.DriverID); err == nil && driver.Location != nil && driver.Location.IsSet() {
				loc := driver.Location.LatLng()
				entry.DriverLocation = &loc
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *offerService) NearbyHospitals(ctx context.Context, location models.LatLng) ([]*models.Hospital, error) {
	if !validLatLng(location) {
		return nil, invalid("location", "lat must be within [-90, 90] and lng within [-180, 180]")
	}
	return s.Geo.NearestHospitals(ctx, interfaces.HospitalQuery{
		Center:   location.GeoPoint(),
		RadiusKM: s.Config.NearbyHospitals.RadiusKM,
		Limit:    s.Config.NearbyHospitals.Limit,
	})
}

func admissionOffer(request *models.EmergencyRequest, offer *models.AdmissionOffer, ttlSeconds int) models.AdmissionOfferEvent {
	event := models.AdmissionOfferEvent{
		RequestID: request.ID.Hex(),
		OfferID:   offer.ID.Hex(),
		Round:     offer.Round,
		User: models.OfferPatient{
			ID:                  request.ClientID.Hex(),
			Name:                request.PatientName,
			Contact:             request.PatientContact,
			BloodGroup:          request.BloodGroup,
			HasMedicalAllergies: request.HasMedicalAllergies,
		},
		Location:    request.Location.LatLng(),
		InjuryLevel: request.Injury(),
		InjuryNotes: request.InjuryNotes,
		Driver: models.OfferDriver{
			Name:    request.DriverName,
			Vehicle: request.Vehicle,
			Contact: request.DriverContact,
		},
		ETAMinutes: offer.ETAMinutes,
		Vitals:     request.Vitals,
		Notes:      request.DriverNotes,
		TTLSeconds: ttlSeconds,
		ExpiresAt:  offer.ExpiresAt,
	}
	if request.DriverID != nil {
		event.Driver.ID = request.DriverID.Hex()
	}
	return event
}

func admissionMessage(hospital *models.Hospital, input AdmissionInput) string {
	parts := []string{hospital.Name + " has accepted the patient"}
	if input.BedNumber != "" {
		parts = append(parts, "bed "+input.BedNumber)
	}
	if input.Dock != "" {
		parts = append(parts, "arrival dock "+input.Dock)
	}
	msg := strings.Join(parts, ", ")
	if hospital.Address != "" {
		msg += ". " + hospital.Address
	}
	return msg + "."
}
