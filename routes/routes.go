package routes

import (
	"lifeline/internal/handlers"
	"lifeline/internal/middleware"
	"lifeline/internal/models"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Client   *handlers.ClientHandler
	Driver   *handlers.DriverHandler
	Hospital *handlers.HospitalHandler
	Device   *handlers.DeviceHandler
}

// SetupRoutes mounts the API under r. auth resolves the caller's principal.
func SetupRoutes(r *gin.RouterGroup, h Handlers, auth gin.HandlerFunc) {
	r.POST("/auth/refresh", h.Auth.Refresh)

	// Hospital lookup needs no account
	r.GET("/hospitals/nearby", h.Client.NearbyHospitals)

	authed := r.Group("/")
	authed.Use(auth)
	{
		authed.GET("/requests/:id", h.Client.RequestStatus)
		authed.POST("/devices", h.Device.RegisterDevice)
	}

	client := r.Group("/client")
	client.Use(auth, middleware.RoleRequired(models.RoleClient))
	{
		client.POST("/sos", h.Client.TriggerSOS)
		client.GET("/requests", h.Client.MyRequests)
	}

	driver := r.Group("/driver")
	driver.Use(auth, middleware.RoleRequired(models.RoleDriver))
	{
		driver.POST("/accept", h.Driver.Accept)
		driver.POST("/decline", h.Driver.Decline)
		driver.POST("/arrived-at-scene", h.Driver.ArrivedAtScene)
		driver.POST("/assessment", h.Driver.SubmitAssessment)
		driver.POST("/pickup", h.Driver.SubmitPickup)
		driver.POST("/offer-round", h.Driver.RequestOfferRound)
		driver.POST("/arrived-at-hospital", h.Driver.ArrivedAtHospital)

		driver.PUT("/location", h.Driver.UpdateLocation)
		driver.PUT("/availability", h.Driver.ToggleAvailability)
		driver.GET("/nearby-requests", h.Driver.NearbyRequests)
	}

	hospital := r.Group("/hospital")
	hospital.Use(auth, middleware.RoleRequired(models.RoleAdmin))
	{
		hospital.POST("/admission", h.Hospital.ConfirmAdmission)
		hospital.PUT("/capacity", h.Hospital.UpdateCapacity)
		hospital.GET("/dashboard", h.Hospital.Dashboard)
	}
}
