package models

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrPropertyNotFound    = errors.New("property not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrReclamationNotFound = errors.New("reclamation not found")
	ErrPayoutNotFound      = errors.New("payout not found")
)

var (
	// ErrConcurrentUpdate means another request changed the row between
	// read and write; the caller should refresh and retry.
	ErrConcurrentUpdate = errors.New("booking was modified concurrently")

	// ErrActiveBookingExists guards the single current-booking slot per tenant.
	ErrActiveBookingExists = errors.New("tenant already has an active booking")

	ErrNegotiationExpired   = errors.New("negotiation offer has expired")
	ErrDuplicateReclamation = errors.New("a reclamation for this booking and complainant already exists")
)

var (
	ErrValidation = errors.New("validation error")

	// ErrSeverityFixed rejects severity updates on fixed-penalty types.
	ErrSeverityFixed = errors.New("severity is fixed for this reclamation type")

	ErrForbidden = errors.New("actor is not permitted to perform this action")
)

// InvalidTransitionError reports an action attempted against a state that
// does not allow it. Callers distinguish it from validation errors so they
// can refresh state and retry.
type InvalidTransitionError struct {
	Current string
	Action  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: cannot %s while in status %s", e.Action, e.Current)
}

func NewInvalidTransitionError(current fmt.Stringer, action string) *InvalidTransitionError {
	return &InvalidTransitionError{Current: current.String(), Action: action}
}
