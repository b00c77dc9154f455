package services

import (
	"testing"

	"rental-backend/models"
	"rental-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePenaltyMatrix(t *testing.T) {
	require.NoError(t, ValidatePenaltyMatrix())
}

func TestComputePenaltyGuestComplaint(t *testing.T) {
	// Guest refunds come out of the fee-adjusted rent (90% of rent).
	refund, points := ComputePenalty(models.ComplainantGuest, models.TypeSafetyHealth, models.SeverityHigh, 1000, 500)
	assert.InDelta(t, 630.00, refund, 1e-9)
	assert.Equal(t, 15, points)

	refund, points = ComputePenalty(models.ComplainantGuest, models.TypeCleanliness, models.SeverityLow, 1000, 500)
	assert.InDelta(t, 45.00, refund, 1e-9)
	assert.Equal(t, 0, points)
}

func TestComputePenaltyHostComplaint(t *testing.T) {
	// Host compensation is drawn from the deposit; the platform fee never
	// applies to it.
	refund, points := ComputePenalty(models.ComplainantHost, models.TypePropertyDamage, models.SeverityCritical, 1000, 500)
	assert.InDelta(t, 500.00, refund, 1e-9)
	assert.Equal(t, 15, points)

	refund, points = ComputePenalty(models.ComplainantHost, models.TypeHouseRuleViolation, models.SeverityLow, 1000, 500)
	assert.InDelta(t, 0, refund, 1e-9)
	assert.Equal(t, 2, points)
}

func TestComputePenaltyFixedTypesIgnoreSeverity(t *testing.T) {
	want := 0.90*1000 + 500

	for _, sev := range append(models.AllSeverities(), models.Severity("")) {
		refund, points := ComputePenalty(models.ComplainantGuest, models.TypeAccessIssue, sev, 1000, 500)
		assert.InDeltaf(t, want, refund, 1e-9, "severity %q", sev)
		assert.Equal(t, 10, points)

		refund, points = ComputePenalty(models.ComplainantGuest, models.TypeNotAsDescribed, sev, 1000, 500)
		assert.InDeltaf(t, want, refund, 1e-9, "severity %q", sev)
		assert.Equal(t, 10, points)
	}
}

func TestComputePenaltyRoleTypeMismatch(t *testing.T) {
	refund, points := ComputePenalty(models.ComplainantHost, models.TypeCleanliness, models.SeverityHigh, 1000, 500)
	assert.Zero(t, refund)
	assert.Zero(t, points)

	refund, points = ComputePenalty(models.ComplainantGuest, models.TypePropertyDamage, models.SeverityHigh, 1000, 500)
	assert.Zero(t, refund)
	assert.Zero(t, points)
}

func TestComputePenaltyDeterministic(t *testing.T) {
	for _, typ := range models.AllReclamationTypes() {
		role := typ.FiledBy()
		for _, sev := range models.AllSeverities() {
			a, ap := ComputePenalty(role, typ, sev, 1234.56, 789.01)
			b, bp := ComputePenalty(role, typ, sev, 1234.56, 789.01)
			assert.Equal(t, a, b)
			assert.Equal(t, ap, bp)
			assert.GreaterOrEqual(t, a, 0.0)
			assert.GreaterOrEqual(t, ap, 0)
		}
	}
}

func TestRound2AtBoundaries(t *testing.T) {
	assert.Equal(t, 0.33, utils.Round2(0.325))
	assert.Equal(t, 630.0, utils.Round2(629.9999999999))
	assert.Equal(t, 0.0, utils.Round2(0.004))
}
