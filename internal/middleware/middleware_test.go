package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"lifeline/internal/models"
	"lifeline/internal/utils"
	"lifeline/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const secret = "middleware-secret"

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", handlers...)
	return router
}

func serve(router *gin.Engine, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, claims utils.JWTClaims) http.Header {
	pair, err := utils.GenerateTokenPair(claims, secret)
	require.NoError(t, err)
	return http.Header{"Authorization": []string{"Bearer " + pair.AccessToken}}
}

func TestRequestIDIsGeneratedOrPropagated(t *testing.T) {
	var seen string
	router := newRouter(RequestIDMiddleware(), func(c *gin.Context) {
		seen = logger.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	rec := serve(router, nil)
	generated := rec.Header().Get(utils.HeaderRequestID)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, seen)

	rec = serve(router, http.Header{utils.HeaderRequestID: []string{"req-42"}})
	assert.Equal(t, "req-42", rec.Header().Get(utils.HeaderRequestID))
	assert.Equal(t, "req-42", seen)
}

func TestAuthRequiredResolvesPrincipal(t *testing.T) {
	audit := logger.NewAuditLoggerFrom(logger.Discard())
	hospitalID := primitive.NewObjectID()

	var principal models.Principal
	router := newRouter(AuthRequired(secret, audit), func(c *gin.Context) {
		principal, _ = GetPrincipal(c)
		c.Status(http.StatusOK)
	})

	rec := serve(router, bearer(t, utils.JWTClaims{
		UserID:     primitive.NewObjectID(),
		UserType:   utils.UserTypeAdmin,
		HospitalID: &hospitalID,
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	admin, ok := principal.(models.AdminPrincipal)
	require.True(t, ok)
	assert.Equal(t, hospitalID, admin.HospitalID)

	rec = serve(router, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.Header{"Authorization": []string{"Token abc"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Admin tokens must name their hospital.
	rec = serve(router, bearer(t, utils.JWTClaims{UserID: primitive.NewObjectID(), UserType: utils.UserTypeAdmin}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, bearer(t, utils.JWTClaims{UserID: primitive.NewObjectID(), UserType: "rider"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenSignedWithAnotherSecretIsRejected(t *testing.T) {
	audit := logger.NewAuditLoggerFrom(logger.Discard())
	router := newRouter(AuthRequired(secret, audit), func(c *gin.Context) { c.Status(http.StatusOK) })

	pair, err := utils.GenerateTokenPair(utils.JWTClaims{
		UserID:   primitive.NewObjectID(),
		UserType: utils.UserTypeClient,
	}, "other-secret")
	require.NoError(t, err)

	rec := serve(router, http.Header{"Authorization": []string{"Bearer " + pair.AccessToken}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleRequired(t *testing.T) {
	audit := logger.NewAuditLoggerFrom(logger.Discard())
	router := newRouter(AuthRequired(secret, audit), RoleRequired(models.RoleDriver), func(c *gin.Context) {
		driver, ok := GetDriver(c)
		require.True(t, ok)
		assert.Equal(t, "ALS (KA01)", driver.Vehicle.String())
		c.Status(http.StatusOK)
	})

	rec := serve(router, bearer(t, utils.JWTClaims{
		UserID:   primitive.NewObjectID(),
		UserType: utils.UserTypeDriver,
		Vehicle:  &models.Vehicle{Type: "ALS", Plate: "KA01"},
	}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, bearer(t, utils.JWTClaims{UserID: primitive.NewObjectID(), UserType: utils.UserTypeClient}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware([]string{"https://console.example"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.OPTIONS("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://console.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://console.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
