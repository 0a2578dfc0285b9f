package services

import (
	"errors"
	"fmt"

	"lifeline/internal/repositories/interfaces"
)

var (
	ErrRequestNotFound   = errors.New("emergency request not found")
	ErrOfferNotFound     = errors.New("admission offer not found")
	ErrDriverNotFound    = errors.New("driver not found")
	ErrHospitalNotFound  = errors.New("hospital not found")
	ErrInvalidTransition = errors.New("request is not in a state that allows this action")
	ErrOfferExpired      = errors.New("admission offer has expired")
	ErrOfferClosed       = errors.New("admission offer is no longer pending")
	ErrForbidden         = errors.New("access denied")
)

// ValidationError rejects malformed input before any state is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ledgerError translates request repository sentinels into domain errors.
func ledgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, interfaces.ErrNotFound):
		return ErrRequestNotFound
	case errors.Is(err, interfaces.ErrPrecondition):
		return ErrInvalidTransition
	}
	return err
}

func notFoundAs(err, target error) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return target
	}
	return err
}
