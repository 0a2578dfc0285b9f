package handlers

import (
	"lifeline/internal/middleware"
	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	dispatch services.DispatchService
}

func NewDeviceHandler(dispatch services.DispatchService) *DeviceHandler {
	return &DeviceHandler{dispatch: dispatch}
}

// RegisterDevice stores the push token of a driver app or hospital console.
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var device models.Device
	if !bindJSON(c, &device) {
		return
	}

	if err := h.dispatch.RegisterDevice(c.Request.Context(), principal, device); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Device registered", gin.H{"platform": device.Platform})
}
