package services

import (
	"errors"
	"net/http"

	goa "goa.design/goa/v3/pkg"
)

// Service error names. The transport maps them to HTTP status codes.
const (
	ErrNameBadRequest   = "bad_request"
	ErrNameUnauthorized = "unauthorized"
	ErrNameUnavailable  = "unavailable"
	ErrNameFault        = "fault"
)

// BadRequest creates a bad request error carrying message verbatim
func BadRequest(message string) *goa.ServiceError {
	return goa.PermanentError(ErrNameBadRequest, "%s", message)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *goa.ServiceError {
	return goa.PermanentError(ErrNameUnauthorized, "%s", message)
}

// Unavailable reports that no upstream produced data
func Unavailable(message string, err error) *goa.ServiceError {
	if err == nil {
		err = errors.New(message)
	}
	se := goa.NewServiceError(err, ErrNameUnavailable, false, true, false)
	se.Message = message
	return se
}

// Internal creates a fault whose public message is message; err is kept for logging
func Internal(message string, err error) *goa.ServiceError {
	if err == nil {
		err = errors.New(message)
	}
	se := goa.NewServiceError(err, ErrNameFault, false, false, true)
	se.Message = message
	return se
}

// StatusOf maps a service error to an HTTP status code
func StatusOf(err error) int {
	var se *goa.ServiceError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Name {
	case ErrNameBadRequest:
		return http.StatusBadRequest
	case ErrNameUnauthorized:
		return http.StatusUnauthorized
	case ErrNameUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to clients
func PublicMessage(err error, fallback string) string {
	var se *goa.ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
