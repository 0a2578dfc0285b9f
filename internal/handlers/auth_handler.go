package handlers

import (
	"net/http"

	"lifeline/internal/utils"
	"lifeline/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthHandler only rotates tokens; accounts are owned by the identity
// provider that issued them.
type AuthHandler struct {
	secret string
	audit  *logger.AuditLogger
}

func NewAuthHandler(secret string, audit *logger.AuditLogger) *AuthHandler {
	return &AuthHandler{secret: secret, audit: audit}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := utils.RefreshAccessToken(req.RefreshToken, h.secret)
	if err != nil {
		h.audit.LogAuthEvent("token_refresh", nil, c.ClientIP(), c.Request.UserAgent(), false)
		utils.ErrorResponse(c, http.StatusUnauthorized, utils.CodeUnauthorized, utils.ErrInvalidToken)
		return
	}

	h.audit.LogAuthEvent("token_refresh", nil, c.ClientIP(), c.Request.UserAgent(), true)
	utils.SuccessResponse(c, "Token refreshed", tokens)
}
