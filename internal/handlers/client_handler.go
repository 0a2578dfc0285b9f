package handlers

import (
	"lifeline/internal/middleware"
	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"

	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	dispatch services.DispatchService
	offers   services.OfferService
}

func NewClientHandler(dispatch services.DispatchService, offers services.OfferService) *ClientHandler {
	return &ClientHandler{
		dispatch: dispatch,
		offers:   offers,
	}
}

type sosRequest struct {
	Location            *models.LatLng    `json:"location"`
	Condition           string            `json:"condition"`
	PreliminarySeverity string            `json:"preliminary_severity"`
	SensorData          models.SensorData `json:"sensor_data"`
	AutoTriggered       bool              `json:"auto_triggered"`
	Contact             string            `json:"contact"`
}

// TriggerSOS raises a new emergency for the calling patient
func (h *ClientHandler) TriggerSOS(c *gin.Context) {
	client, ok := middleware.GetClient(c)
	if !ok {
		utils.ForbiddenResponse(c)
		return
	}

	var req sosRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.dispatch.TriggerSOS(c.Request.Context(), client, services.SOSInput{
		Location:            req.Location,
		Condition:           req.Condition,
		PreliminarySeverity: req.PreliminarySeverity,
		SensorData:          req.SensorData,
		AutoTriggered:       req.AutoTriggered,
		Contact:             req.Contact,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, "SOS raised", result)
}

func (h *ClientHandler) MyRequests(c *gin.Context) {
	client, ok := middleware.GetClient(c)
	if !ok {
		utils.ForbiddenResponse(c)
		return
	}

	requests, err := h.dispatch.MyRequests(c.Request.Context(), client)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Requests retrieved", requests, &utils.Meta{Count: len(requests)})
}

// RequestStatus is shared by every role; the service checks access.
func (h *ClientHandler) RequestStatus(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}

	request, err := h.dispatch.RequestStatus(c.Request.Context(), principal, requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Request retrieved", request)
}

type locationQuery struct {
	Lat *float64 `form:"lat" binding:"required"`
	Lng *float64 `form:"lng" binding:"required"`
}

func (h *ClientHandler) NearbyHospitals(c *gin.Context) {
	var query locationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"location": "lat and lng are required"})
		return
	}

	hospitals, err := h.offers.NearbyHospitals(c.Request.Context(), models.LatLng{Lat: *query.Lat, Lng: *query.Lng})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Hospitals retrieved", hospitals, &utils.Meta{Count: len(hospitals)})
}
