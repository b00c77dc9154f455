package models

import "fmt"

// BookingStatus is the closed set of states a booking moves through.
type BookingStatus string

const (
	StatusPendingNegotiation  BookingStatus = "PENDING_NEGOTIATION"
	StatusPendingPayment      BookingStatus = "PENDING_PAYMENT"
	StatusNegotiationRejected BookingStatus = "NEGOTIATION_REJECTED"
	StatusConfirmed           BookingStatus = "CONFIRMED"
	StatusTenantCheckedOut    BookingStatus = "TENANT_CHECKED_OUT"
	StatusCompleted           BookingStatus = "COMPLETED"
	StatusCancelledByTenant   BookingStatus = "CANCELLED_BY_TENANT"
	StatusCancelledByHost     BookingStatus = "CANCELLED_BY_HOST"
	StatusInDispute           BookingStatus = "IN_DISPUTE"

	// StatusLegacyPending is accepted on read from rows written before the
	// split into PENDING_NEGOTIATION / PENDING_PAYMENT. Never written back.
	StatusLegacyPending BookingStatus = "PENDING"
)

// validBookingTransitions defines the state machine for booking status
// transitions. The key is the current state, the value the allowed targets.
var validBookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPendingNegotiation: {
		StatusConfirmed,
		StatusNegotiationRejected,
		StatusCancelledByTenant,
		StatusCancelledByHost,
	},
	StatusPendingPayment: {
		StatusConfirmed,
		StatusCancelledByTenant,
		StatusCancelledByHost,
	},
	StatusNegotiationRejected: {
		StatusPendingNegotiation,
		StatusCancelledByTenant,
	},
	StatusConfirmed: {
		StatusTenantCheckedOut,
		StatusInDispute,
	},
	StatusTenantCheckedOut: {
		StatusCompleted,
		StatusInDispute,
	},
	StatusCompleted:         {},
	StatusCancelledByTenant: {},
	StatusCancelledByHost:   {},
	StatusInDispute:         {},
}

func (s BookingStatus) IsValid() bool {
	_, exists := validBookingTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the
// target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validBookingTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validBookingTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// IsActive reports whether the booking occupies the tenant's single
// "current booking" slot.
func (s BookingStatus) IsActive() bool {
	return s == StatusConfirmed || s == StatusTenantCheckedOut
}

// IsEditable reports whether booking fields may still be updated.
func (s BookingStatus) IsEditable() bool {
	return s == StatusPendingPayment || s == StatusPendingNegotiation || s == StatusNegotiationRejected
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an
// error if it is not a recognized state. The legacy PENDING value is not
// accepted here; use NormalizeBookingStatus for stored rows.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// NormalizeBookingStatus maps the legacy PENDING status onto the split
// states: rows carrying a non-zero requested price are negotiations, the
// rest are waiting for payment. Other values pass through unchanged.
func NormalizeBookingStatus(s BookingStatus, requestedPrice *float64) BookingStatus {
	if s != StatusLegacyPending {
		return s
	}
	if requestedPrice != nil && *requestedPrice > 0 {
		return StatusPendingNegotiation
	}
	return StatusPendingPayment
}

// AllBookingStatuses returns every modeled state, for exhaustiveness checks.
func AllBookingStatuses() []BookingStatus {
	out := make([]BookingStatus, 0, len(validBookingTransitions))
	for s := range validBookingTransitions {
		out = append(out, s)
	}
	return out
}
