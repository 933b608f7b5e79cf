package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrMissingToken indicates no bearer token reached an outbound call.
	ErrMissingToken = errors.New("bearer token missing")
)
