package tutorial

import (
	"errors"
	"strings"
)

var (
	ErrNotFound             = errors.New("tutorial not found")
	ErrInvalidID            = errors.New("invalid tutorial id")
	ErrAlreadyBooked        = errors.New("already booked")
	ErrEmptyPatch           = errors.New("no updatable fields in request")
	ErrMissingBookingFields = errors.New("tutorialId and userEmail are required")
)

// ValidationError lists the field problems found in a create or patch request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}
