// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUpstream     = errors.New("upstream request failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// UserMessage is implemented by errors that carry text safe to show users.
type UserMessage interface {
	UserMessage() string
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	detail := err.Error()
	var um UserMessage
	if errors.As(err, &um) {
		detail = um.UserMessage()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", detail)
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", detail)
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", detail)
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", detail)
	case errors.Is(err, ErrUpstream):
		Problem(w, http.StatusBadGateway, "Upstream Error", detail)
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
