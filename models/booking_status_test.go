package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatusTransitions(t *testing.T) {
	cases := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{StatusPendingNegotiation, StatusConfirmed, true},
		{StatusPendingNegotiation, StatusNegotiationRejected, true},
		{StatusPendingNegotiation, StatusCancelledByTenant, true},
		{StatusPendingNegotiation, StatusCancelledByHost, true},
		{StatusPendingNegotiation, StatusTenantCheckedOut, false},
		{StatusPendingPayment, StatusConfirmed, true},
		{StatusPendingPayment, StatusCancelledByTenant, true},
		{StatusPendingPayment, StatusCancelledByHost, true},
		{StatusPendingPayment, StatusNegotiationRejected, false},
		{StatusNegotiationRejected, StatusPendingNegotiation, true},
		{StatusNegotiationRejected, StatusCancelledByTenant, true},
		{StatusNegotiationRejected, StatusCancelledByHost, false},
		{StatusNegotiationRejected, StatusConfirmed, false},
		{StatusConfirmed, StatusTenantCheckedOut, true},
		{StatusConfirmed, StatusInDispute, true},
		{StatusConfirmed, StatusCompleted, false},
		{StatusConfirmed, StatusCancelledByTenant, false},
		{StatusTenantCheckedOut, StatusCompleted, true},
		{StatusTenantCheckedOut, StatusInDispute, true},
		{StatusTenantCheckedOut, StatusConfirmed, false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestBookingStatusTerminalStates(t *testing.T) {
	terminals := []BookingStatus{
		StatusCompleted,
		StatusCancelledByTenant,
		StatusCancelledByHost,
		StatusInDispute,
	}

	for _, s := range terminals {
		assert.Truef(t, s.IsTerminal(), "%s should be terminal", s)
		for _, target := range AllBookingStatuses() {
			assert.Falsef(t, s.CanTransitionTo(target), "%s -> %s should be rejected", s, target)
		}
	}

	assert.False(t, StatusConfirmed.IsTerminal())
	assert.False(t, StatusPendingNegotiation.IsTerminal())
}

func TestBookingStatusTransitionTargetsAreValid(t *testing.T) {
	// Every target named in the transition table must itself be a modeled
	// state, so a transition can never strand a booking.
	for from, targets := range validBookingTransitions {
		for _, to := range targets {
			assert.Truef(t, to.IsValid(), "%s -> %s targets an unknown state", from, to)
		}
	}
}

func TestBookingStatusActiveAndEditable(t *testing.T) {
	assert.True(t, StatusConfirmed.IsActive())
	assert.True(t, StatusTenantCheckedOut.IsActive())
	assert.False(t, StatusPendingPayment.IsActive())
	assert.False(t, StatusCompleted.IsActive())
	assert.False(t, StatusInDispute.IsActive())

	assert.True(t, StatusPendingPayment.IsEditable())
	assert.True(t, StatusPendingNegotiation.IsEditable())
	assert.True(t, StatusNegotiationRejected.IsEditable())
	assert.False(t, StatusConfirmed.IsEditable())
	assert.False(t, StatusCompleted.IsEditable())
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus("CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseBookingStatus("PENDING")
	assert.Error(t, err, "legacy PENDING is not parseable")

	_, err = ParseBookingStatus("NOPE")
	assert.Error(t, err)
}

func TestNormalizeBookingStatus(t *testing.T) {
	price := 420.0
	zero := 0.0

	assert.Equal(t, StatusPendingNegotiation, NormalizeBookingStatus(StatusLegacyPending, &price))
	assert.Equal(t, StatusPendingPayment, NormalizeBookingStatus(StatusLegacyPending, nil))
	assert.Equal(t, StatusPendingPayment, NormalizeBookingStatus(StatusLegacyPending, &zero))

	// Non-legacy values pass through regardless of price.
	assert.Equal(t, StatusConfirmed, NormalizeBookingStatus(StatusConfirmed, &price))
	assert.Equal(t, StatusCompleted, NormalizeBookingStatus(StatusCompleted, nil))
}
