package handlers

import (
	"lifeline/internal/middleware"
	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HospitalHandler struct {
	offers services.OfferService
}

func NewHospitalHandler(offers services.OfferService) *HospitalHandler {
	return &HospitalHandler{offers: offers}
}

type admissionRequest struct {
	RequestID primitive.ObjectID `json:"request_id"`
	OfferID   primitive.ObjectID `json:"offer_id"`
	Action    string             `json:"action"`
	BedNumber string             `json:"bed_number"`
	Dock      string             `json:"dock"`
}

// ConfirmAdmission answers an admission offer. An accept that loses to
// another hospital answers 409 with the typed result.
func (h *HospitalHandler) ConfirmAdmission(c *gin.Context) {
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		utils.ForbiddenResponse(c)
		return
	}

	var req admissionRequest
	if !bindJSON(c, &req) || !requireID(c, "request_id", req.RequestID) {
		return
	}

	result, err := h.offers.ConfirmAdmission(c.Request.Context(), admin, services.AdmissionInput{
		RequestID: req.RequestID,
		OfferID:   req.OfferID,
		Action:    services.AdmissionAction(req.Action),
		BedNumber: req.BedNumber,
		Dock:      req.Dock,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	won := result.Status != services.AdmissionStatusConflict
	utils.DataResponse(c, statusFor(won), result.Message, result)
}

func (h *HospitalHandler) UpdateCapacity(c *gin.Context) {
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		utils.ForbiddenResponse(c)
		return
	}

	var capacity models.Capacity
	if !bindJSON(c, &capacity) {
		return
	}

	hospital, err := h.offers.UpdateCapacity(c.Request.Context(), admin, capacity)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Capacity updated", hospital)
}

func (h *HospitalHandler) Dashboard(c *gin.Context) {
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		utils.ForbiddenResponse(c)
		return
	}

	entries, err := h.offers.Dashboard(c.Request.Context(), admin)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Inbound requests retrieved", entries, &utils.Meta{Count: len(entries)})
}
