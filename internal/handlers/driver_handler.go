package handlers

import (
	"net/http"

	"lifeline/internal/middleware"
	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverHandler struct {
	dispatch services.DispatchService
}

func NewDriverHandler(dispatch services.DispatchService) *DriverHandler {
	return &DriverHandler{dispatch: dispatch}
}

type requestRef struct {
	RequestID primitive.ObjectID `json:"request_id"`
}

type assessmentRequest struct {
	RequestID   primitive.ObjectID `json:"request_id"`
	InjuryRisk  string             `json:"injury_risk"`
	InjuryNotes string             `json:"injury_notes"`
	Vitals      *models.Vitals     `json:"vitals"`
}

type pickupRequest struct {
	RequestID   primitive.ObjectID `json:"request_id"`
	InjuryLevel string             `json:"injury_level"`
	Notes       string             `json:"notes"`
	Vitals      *models.Vitals     `json:"vitals"`
}

type availabilityRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// driverRequest resolves the calling driver and the request_id in the body.
func driverRequest(c *gin.Context) (models.DriverPrincipal, primitive.ObjectID, bool) {
	driver, ok := middleware.GetDriver(c)
	if !ok {
		utils.ForbiddenResponse(c)
		return driver, primitive.NilObjectID, false
	}

	var ref requestRef
	if !bindJSON(c, &ref) || !requireID(c, "request_id", ref.RequestID) {
		return driver, primitive.NilObjectID, false
	}
	return driver, ref.RequestID, true
}

// Accept claims a pending request. Losing the race answers 409 with the
// typed result so the app can move on to the next alert.
func (h *DriverHandler) Accept(c *gin.Context) {
	driver, requestID, ok := driverRequest(c)
	if !ok {
		return
	}

	result, err := h.dispatch.DriverAccept(c.Request.Context(), driver, requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Request accepted"
	if !result.Accepted {
		message = result.Reason
	}
	utils.DataResponse(c, statusFor(result.Accepted), message, result)
}

func (h *DriverHandler) Decline(c *gin.Context) {
	driver, requestID, ok := driverRequest(c)
	if !ok {
		return
	}

	if err := h.dispatch.DriverDecline(c.Request.Context(), driver, requestID); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Request declined", gin.H{"request_id": requestID})
}

func (h *DriverHandler) ArrivedAtScene(c *gin.Context) {
	driver, requestID, ok := driverRequest(c)
	if !ok {
		return
	}

	if err := h.dispatch.MarkArrivedAtScene(c.Request.Context(), driver, requestID); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Arrival at scene recorded", gin.H{
		"request_id": requestID,
		"status":     models.RequestStatusArrivedAtScene,
	})
}

func (h *DriverHandler) SubmitAssessment(c *gin.Context) {
	driver, ok := middleware.GetDriver(c)
	if !ok {
		utils.ForbiddenResponse(c)
		return
	}

	var req assessmentRequest
	if !bindJSON(c, &req) || !requireID(c, "request_id", req.RequestID) {
		return
	}

	result, err := h.dispatch.SubmitAssessment(c.Request.Context(), driver, services.AssessmentInput{
		RequestID:  req.RequestID,
		InjuryRisk: req.InjuryRisk,
		Notes:      req.InjuryNotes,
		Vitals:     req.Vitals,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Assessment recorded", result)
}

func (h *DriverHandler) SubmitPickup(c *gin.Context) {
	driver, ok := middleware.GetDriver(c)
	if !ok {
		utils.ForbiddenResponse(c)
		return
	}

	var req pickupRequest
	if !bindJSON(c, &req) || !requireID(c, "request_id", req.RequestID) {
		return
	}

	result, err := h.dispatch.SubmitPickup(c.Request.Context(), driver, services.PickupInput{
		RequestID:   req.RequestID,
		InjuryLevel: req.InjuryLevel,
		Notes:       req.Notes,
		Vitals:      req.Vitals,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Pickup recorded", result)
}

// RequestOfferRound re-offers the patient after rejections or expiry.
func (h *DriverHandler) RequestOfferRound(c *gin.Context) {
	driver, requestID, ok := driverRequest(c)
	if !ok {
		return
	}

	round, err := h.dispatch.RequestOfferRound(c.Request.Context(), driver, requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Hospitals notified"
	if round.Skipped {
		message = "An offer round is already active"
	}
	utils.SuccessResponse(c, message, round)
}

func (h *DriverHandler) ArrivedAtHospital(c *gin.Context) {
	driver, requestID, ok := driverRequest(c)
	if !ok {
		return
	}

	if err := h.dispatch.ArrivedAtHospital(c.Request.Context(), driver, requestID); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Arrival recorded", gin.H{
		"request_id": requestID,
		"status":     models.RequestStatusArrived,
	})
}

func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	driver, ok := middleware.GetDriver(c)
	if !ok {
		utils.ForbiddenResponse(c)
		return
	}

	var location models.LatLng
	if !bindJSON(c, &location) {
		return
	}

	if err := h.dispatch.UpdateDriverLocation(c.Request.Context(), driver.ID, location); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DriverHandler) ToggleAvailability(c *gin.Context) {
	driver, ok := middleware.GetDriver(c)
	if !ok {
		utils.ForbiddenResponse(c)
		return
	}

	var req availabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.dispatch.ToggleAvailability(c.Request.Context(), driver, *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Availability updated", profile)
}

func (h *DriverHandler) NearbyRequests(c *gin.Context) {
	driver, ok := middleware.GetDriver(c)
	if !ok {
		utils.ForbiddenResponse(c)
		return
	}

	requests, err := h.dispatch.NearbyPendingRequests(c.Request.Context(), driver)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Pending requests retrieved", requests, &utils.Meta{Count: len(requests)})
}
