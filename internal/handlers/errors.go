package handlers

import (
	"errors"
	"net/http"

	"lifeline/internal/services"
	"lifeline/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError maps a service error onto the response envelope.
func respondError(c *gin.Context, err error) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		utils.ValidationErrorResponse(c, map[string]string{validation.Field: validation.Message})
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrRequestNotFound):
		utils.NotFoundResponse(c, "Emergency request")
	case errors.Is(err, services.ErrOfferNotFound):
		utils.NotFoundResponse(c, "Admission offer")
	case errors.Is(err, services.ErrDriverNotFound):
		utils.NotFoundResponse(c, "Driver")
	case errors.Is(err, services.ErrHospitalNotFound):
		utils.NotFoundResponse(c, "Hospital")
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrOfferExpired),
		errors.Is(err, services.ErrOfferClosed):
		utils.ConflictResponse(c, err.Error())
	default:
		c.Error(err)
		utils.InternalServerErrorResponse(c)
	}
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.ValidationErrorResponse(c, map[string]string{name: "must be a valid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func requireID(c *gin.Context, field string, id primitive.ObjectID) bool {
	if id.IsZero() {
		utils.ValidationErrorResponse(c, map[string]string{field: "is required"})
		return false
	}
	return true
}

func bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return false
	}
	return true
}

// statusFor picks the status of a typed result that may be a lost race.
func statusFor(won bool) int {
	if won {
		return http.StatusOK
	}
	return http.StatusConflict
}
