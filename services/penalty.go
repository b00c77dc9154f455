package services

import (
	"fmt"

	"rental-backend/models"
)

// platformFeeFactor is the share of rent paid out to a guest after the 10%
// platform fee is withheld. The fee applies to rent only, never the deposit.
const platformFeeFactor = 0.90

// fixedHostPenaltyPoints is charged against the host for the two
// fixed-outcome guest complaint types, regardless of severity.
const fixedHostPenaltyPoints = 10

type penaltyRule struct {
	Fraction float64
	Points   int
}

// penaltyMatrix maps each severity-driven reclamation type to its per-severity
// refund fraction and penalty points. Guest-side fractions apply to the
// fee-adjusted rent; host-side fractions apply to the tenant's deposit.
// ACCESS_ISSUE and NOT_AS_DESCRIBED are fixed-outcome and bypass the matrix.
var penaltyMatrix = map[models.ReclamationType]map[models.Severity]penaltyRule{
	models.TypeCleanliness: {
		models.SeverityLow:      {Fraction: 0.05, Points: 0},
		models.SeverityMedium:   {Fraction: 0.125, Points: 2},
		models.SeverityHigh:     {Fraction: 0.325, Points: 5},
		models.SeverityCritical: {Fraction: 0.50, Points: 10},
	},
	models.TypeSafetyHealth: {
		models.SeverityLow:      {Fraction: 0.10, Points: 3},
		models.SeverityMedium:   {Fraction: 0.30, Points: 7},
		models.SeverityHigh:     {Fraction: 0.70, Points: 15},
		models.SeverityCritical: {Fraction: 1.00, Points: 25},
	},
	models.TypePropertyDamage: {
		models.SeverityLow:      {Fraction: 0.075, Points: 2},
		models.SeverityMedium:   {Fraction: 0.30, Points: 5},
		models.SeverityHigh:     {Fraction: 0.70, Points: 10},
		models.SeverityCritical: {Fraction: 1.00, Points: 15},
	},
	models.TypeExtraCleaning: {
		models.SeverityLow:      {Fraction: 0.075, Points: 1},
		models.SeverityMedium:   {Fraction: 0.20, Points: 3},
		models.SeverityHigh:     {Fraction: 0.40, Points: 5},
		models.SeverityCritical: {Fraction: 0.70, Points: 8},
	},
	models.TypeHouseRuleViolation: {
		models.SeverityLow:      {Fraction: 0, Points: 2},
		models.SeverityMedium:   {Fraction: 0.15, Points: 5},
		models.SeverityHigh:     {Fraction: 0.50, Points: 10},
		models.SeverityCritical: {Fraction: 1.00, Points: 15},
	},
	models.TypeUnauthorizedGuests: {
		models.SeverityLow:      {Fraction: 0.10, Points: 3},
		models.SeverityMedium:   {Fraction: 0.325, Points: 7},
		models.SeverityHigh:     {Fraction: 0.70, Points: 12},
		models.SeverityCritical: {Fraction: 1.00, Points: 20},
	},
}

// ComputePenalty returns the unrounded refund amount and penalty points for
// a resolved reclamation. For GUEST complaints the refund is paid to the
// tenant; for HOST complaints it is compensation drawn from the tenant's
// deposit. A (role, type) pair that does not match yields (0, 0).
func ComputePenalty(role models.ComplainantRole, typ models.ReclamationType, severity models.Severity, rent, deposit float64) (float64, int) {
	if typ.FiledBy() != role {
		return 0, 0
	}

	if typ.HasFixedSeverity() {
		// Full fee-adjusted rent plus the whole deposit back, severity ignored.
		return platformFeeFactor*rent + deposit, fixedHostPenaltyPoints
	}

	rules, ok := penaltyMatrix[typ]
	if !ok {
		return 0, 0
	}
	rule, ok := rules[severity]
	if !ok {
		return 0, 0
	}

	switch role {
	case models.ComplainantGuest:
		return platformFeeFactor * rent * rule.Fraction, rule.Points
	case models.ComplainantHost:
		return deposit * rule.Fraction, rule.Points
	}
	return 0, 0
}

// ValidatePenaltyMatrix checks at startup that every severity-driven type
// defines a rule for every severity, so resolution can never hit a hole.
func ValidatePenaltyMatrix() error {
	for _, typ := range models.AllReclamationTypes() {
		if typ.HasFixedSeverity() {
			continue
		}
		rules, ok := penaltyMatrix[typ]
		if !ok {
			return fmt.Errorf("penalty matrix: missing type %s", typ)
		}
		for _, sev := range models.AllSeverities() {
			if _, ok := rules[sev]; !ok {
				return fmt.Errorf("penalty matrix: type %s missing severity %s", typ, sev)
			}
		}
	}
	return nil
}
