package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReclamationStatus string

const (
	ReclamationOpen     ReclamationStatus = "OPEN"
	ReclamationInReview ReclamationStatus = "IN_REVIEW"
	ReclamationResolved ReclamationStatus = "RESOLVED"
	ReclamationRejected ReclamationStatus = "REJECTED"
)

var validReclamationTransitions = map[ReclamationStatus][]ReclamationStatus{
	ReclamationOpen:     {ReclamationInReview},
	ReclamationInReview: {ReclamationResolved, ReclamationRejected},
	ReclamationResolved: {},
	ReclamationRejected: {},
}

func (s ReclamationStatus) IsValid() bool {
	_, exists := validReclamationTransitions[s]
	return exists
}

func (s ReclamationStatus) CanTransitionTo(target ReclamationStatus) bool {
	allowed, exists := validReclamationTransitions[s]
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

func (s ReclamationStatus) IsTerminal() bool {
	allowed, exists := validReclamationTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

func (s ReclamationStatus) String() string {
	return string(s)
}

func ParseReclamationStatus(s string) (ReclamationStatus, error) {
	status := ReclamationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reclamation status: %s", s)
	}
	return status, nil
}

// ComplainantRole identifies which side of the booking filed the complaint.
type ComplainantRole string

const (
	ComplainantGuest ComplainantRole = "GUEST"
	ComplainantHost  ComplainantRole = "HOST"
)

func ParseComplainantRole(s string) (ComplainantRole, error) {
	switch ComplainantRole(s) {
	case ComplainantGuest, ComplainantHost:
		return ComplainantRole(s), nil
	}
	return "", fmt.Errorf("invalid complainant role: %s", s)
}

type ReclamationType string

const (
	// Guest-side complaint types.
	TypeAccessIssue    ReclamationType = "ACCESS_ISSUE"
	TypeNotAsDescribed ReclamationType = "NOT_AS_DESCRIBED"
	TypeCleanliness    ReclamationType = "CLEANLINESS"
	TypeSafetyHealth   ReclamationType = "SAFETY_HEALTH"

	// Host-side complaint types.
	TypePropertyDamage     ReclamationType = "PROPERTY_DAMAGE"
	TypeExtraCleaning      ReclamationType = "EXTRA_CLEANING"
	TypeHouseRuleViolation ReclamationType = "HOUSE_RULE_VIOLATION"
	TypeUnauthorizedGuests ReclamationType = "UNAUTHORIZED_GUESTS_OR_STAY"
)

// reclamationTypeRoles maps each type to the role allowed to file it.
var reclamationTypeRoles = map[ReclamationType]ComplainantRole{
	TypeAccessIssue:        ComplainantGuest,
	TypeNotAsDescribed:     ComplainantGuest,
	TypeCleanliness:        ComplainantGuest,
	TypeSafetyHealth:       ComplainantGuest,
	TypePropertyDamage:     ComplainantHost,
	TypeExtraCleaning:      ComplainantHost,
	TypeHouseRuleViolation: ComplainantHost,
	TypeUnauthorizedGuests: ComplainantHost,
}

func (t ReclamationType) IsValid() bool {
	_, exists := reclamationTypeRoles[t]
	return exists
}

// FiledBy returns the complainant role this type belongs to.
func (t ReclamationType) FiledBy() ComplainantRole {
	return reclamationTypeRoles[t]
}

// HasFixedSeverity reports whether the penalty outcome for this type is
// independent of severity. Severity updates are rejected for these types.
func (t ReclamationType) HasFixedSeverity() bool {
	return t == TypeAccessIssue || t == TypeNotAsDescribed
}

func ParseReclamationType(s string) (ReclamationType, error) {
	typ := ReclamationType(s)
	if !typ.IsValid() {
		return "", fmt.Errorf("invalid reclamation type: %s", s)
	}
	return typ, nil
}

// AllReclamationTypes returns every modeled type, for exhaustiveness checks.
func AllReclamationTypes() []ReclamationType {
	out := make([]ReclamationType, 0, len(reclamationTypeRoles))
	for t := range reclamationTypeRoles {
		out = append(out, t)
	}
	return out
}

// Severity is the ordinal complaint intensity driving penalty magnitude.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.IsValid() {
		return "", fmt.Errorf("invalid severity: %s", s)
	}
	return sev, nil
}

// AllSeverities returns the severity scale in ascending order.
func AllSeverities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Reclamation is a complaint raised by one party of a booking against the
// other. Refund and penalty stay null until an admin resolves it.
type Reclamation struct {
	gorm.Model

	BookingID       uint            `gorm:"column:booking_id;uniqueIndex:idx_booking_complainant" json:"bookingId"`
	ComplainantID   uint            `gorm:"column:complainant_id;uniqueIndex:idx_booking_complainant" json:"complainantId"`
	ComplainantRole ComplainantRole `gorm:"column:complainant_role;size:16" json:"complainantRole"`
	TargetUserID    uint            `gorm:"column:target_user_id" json:"targetUserId"`

	Type        ReclamationType `gorm:"column:type;size:64" json:"type"`
	Title       string          `gorm:"size:255" json:"title,omitempty"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Images      datatypes.JSON  `gorm:"column:images" json:"images,omitempty"`

	Status   ReclamationStatus `gorm:"column:status;size:32;index" json:"status"`
	Severity Severity          `gorm:"column:severity;size:16" json:"severity,omitempty"`

	RefundAmount    *float64   `gorm:"column:refund_amount" json:"refundAmount,omitempty"`
	PenaltyPoints   *int       `gorm:"column:penalty_points" json:"penaltyPoints,omitempty"`
	ResolutionNotes string     `gorm:"column:resolution_notes;type:text" json:"resolutionNotes,omitempty"`
	ResolvedAt      *time.Time `gorm:"column:resolved_at" json:"resolvedAt,omitempty"`

	Booking Booking `gorm:"foreignKey:BookingID;references:ID" json:"booking,omitempty"`
}
