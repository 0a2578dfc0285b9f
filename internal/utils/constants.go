package utils

import "time"

const (
	AppName    = "lifeline"
	AppVersion = "1.0.0"

	JWTAccessTokenTTL  = 24 * time.Hour
	JWTRefreshTokenTTL = 7 * 24 * time.Hour

	// Context keys set by the auth and request id middleware
	ContextPrincipal = "principal"
	ContextRequestID = "request_id"
	HeaderRequestID  = "X-Request-ID"
)

// User types carried in tokens
const (
	UserTypeClient = "client"
	UserTypeDriver = "driver"
	UserTypeAdmin  = "admin"
)

// Response status
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

// Error messages
const (
	ErrInvalidToken     = "invalid token"
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrValidationFailed = "validation failed"
)

const EarthRadiusKM = 6371.0
