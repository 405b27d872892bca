// Package services defines the business logic for chat and room bookings.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyPrompt is returned when a chat request contains an empty prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a chat prompt exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrSubmissionInFlight is returned when a session attempts a second
	// booking submission while one is still being processed.
	ErrSubmissionInFlight = errors.New("a booking submission is already in progress")

	// ErrCooldown is returned when a session resubmits a booking before the
	// cooldown interval since its previous submission has elapsed.
	ErrCooldown = errors.New("please wait a moment before submitting another booking")
)

// ValidationError carries the full list of booking form violations. Every
// rule is checked independently, so Problems holds one message per failed
// rule rather than only the first.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "booking validation failed: " + strings.Join(e.Problems, "; ")
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
