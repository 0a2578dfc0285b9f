package middleware

import (
	"strings"

	"lifeline/internal/models"
	"lifeline/internal/utils"
	"lifeline/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and stores the caller's typed
// principal in the gin context.
func AuthRequired(secret string, audit *logger.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := Authenticate(c, secret)
		if !ok {
			audit.LogAuthEvent("token_rejected", nil, c.ClientIP(), c.Request.UserAgent(), false)
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		c.Set(utils.ContextPrincipal, principal)
		c.Next()
	}
}

// Authenticate resolves the caller from the Authorization header, falling
// back to a token query parameter for websocket upgrades.
func Authenticate(c *gin.Context, secret string) (models.Principal, bool) {
	token := bearerToken(c)
	if token == "" {
		return nil, false
	}

	claims, err := utils.ValidateToken(token, secret)
	if err != nil {
		return nil, false
	}

	principal, err := claims.Principal()
	if err != nil {
		return nil, false
	}
	return principal, true
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return c.Query("token")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return ""
	}
	return token
}

// RoleRequired rejects callers whose principal is not of the given role.
func RoleRequired(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		if principal.Role() != role {
			utils.ForbiddenResponse(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetPrincipal(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(utils.ContextPrincipal)
	if !exists {
		return nil, false
	}
	principal, ok := value.(models.Principal)
	return principal, ok
}

func GetClient(c *gin.Context) (models.ClientPrincipal, bool) {
	principal, _ := GetPrincipal(c)
	client, ok := principal.(models.ClientPrincipal)
	return client, ok
}

func GetDriver(c *gin.Context) (models.DriverPrincipal, bool) {
	principal, _ := GetPrincipal(c)
	driver, ok := principal.(models.DriverPrincipal)
	return driver, ok
}

func GetAdmin(c *gin.Context) (models.AdminPrincipal, bool) {
	principal, _ := GetPrincipal(c)
	admin, ok := principal.(models.AdminPrincipal)
	return admin, ok
}
