// services/reclamation_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rental-backend/models"
	"rental-backend/utils"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReclamationService owns the complaint lifecycle and, on resolution,
// the penalty computation. Refund and penalty points stay null until an
// admin resolves with approval.
type ReclamationService struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewReclamationService(db *gorm.DB, log *logrus.Logger) *ReclamationService {
	return &ReclamationService{DB: db, Log: log}
}

type CreateReclamationInput struct {
	BookingID     uint
	ComplainantID uint
	Role          string
	Type          string
	Severity      string
	Title         string
	Description   string
	Images        []string
}

type UpdateReclamationInput struct {
	Title       *string
	Description *string
	Images      []string
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if merr, ok := err.(*mysql.MySQLError); ok {
		return merr.Number == 1062
	}
	lc := strings.ToLower(err.Error())
	return strings.Contains(lc, "duplicate") || strings.Contains(lc, "unique")
}

func marshalImages(images []string) (datatypes.JSON, error) {
	if images == nil {
		images = []string{}
	}
	raw, err := json.Marshal(images)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func (s *ReclamationService) loadReclamation(tx *gorm.DB, id uint) (*models.Reclamation, error) {
	var r models.Reclamation
	if err := tx.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrReclamationNotFound
		}
		return nil, fmt.Errorf("failed to load reclamation %d: %w", id, err)
	}
	return &r, nil
}

// Create files a complaint against the other party of an active booking.
// Uniqueness per (booking, complainant) is enforced by the database index,
// not a read-then-write check.
func (s *ReclamationService) Create(in CreateReclamationInput) (*models.Reclamation, error) {
	role, err := models.ParseComplainantRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	typ, err := models.ParseReclamationType(in.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if typ.FiledBy() != role {
		return nil, fmt.Errorf("%w: type %s cannot be filed by role %s", models.ErrValidation, typ, role)
	}

	severity := models.SeverityLow
	if in.Severity != "" {
		if typ.HasFixedSeverity() {
			return nil, models.ErrSeverityFixed
		}
		if severity, err = models.ParseSeverity(in.Severity); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
		}
	}
	if typ.HasFixedSeverity() {
		severity = ""
	}

	var booking models.Booking
	if err := s.DB.Preload("Property").First(&booking, in.BookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if !booking.Status.IsActive() {
		return nil, models.NewInvalidTransitionError(booking.Status, "file reclamation")
	}

	var target uint
	switch role {
	case models.ComplainantGuest:
		if booking.TenantID != in.ComplainantID {
			return nil, models.ErrForbidden
		}
		target = booking.Property.OwnerID
	case models.ComplainantHost:
		if booking.Property.OwnerID != in.ComplainantID {
			return nil, models.ErrForbidden
		}
		target = booking.TenantID
	}

	images, err := marshalImages(in.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to encode images: %w", err)
	}

	reclamation := models.Reclamation{
		BookingID:       in.BookingID,
		ComplainantID:   in.ComplainantID,
		ComplainantRole: role,
		TargetUserID:    target,
		Type:            typ,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Images:          images,
		Status:          models.ReclamationOpen,
		Severity:        severity,
	}

	if err := s.DB.Create(&reclamation).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, models.ErrDuplicateReclamation
		}
		return nil, fmt.Errorf("failed to create reclamation: %w", err)
	}

	s.Log.WithFields(logrus.Fields{
		"reclamation_id": reclamation.ID,
		"booking_id":     reclamation.BookingID,
		"type":           reclamation.Type,
		"role":           reclamation.ComplainantRole,
	}).Info("reclamation filed")
	return &reclamation, nil
}

// GetByBookingAndComplainant returns the single reclamation for the pair.
func (s *ReclamationService) GetByBookingAndComplainant(bookingID, complainantID uint) (*models.Reclamation, error) {
	var r models.Reclamation
	err := s.DB.
		Where("booking_id = ? AND complainant_id = ?", bookingID, complainantID).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrReclamationNotFound
		}
		return nil, fmt.Errorf("failed to retrieve reclamation: %w", err)
	}
	return &r, nil
}

// Update lets the complainant amend title, description or images while the
// reclamation is still OPEN.
func (s *ReclamationService) Update(id, userID uint, in UpdateReclamationInput) (*models.Reclamation, error) {
	var out *models.Reclamation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		r, err := s.loadReclamation(tx, id)
		if err != nil {
			return err
		}
		if r.ComplainantID != userID {
			return models.ErrForbidden
		}
		if r.Status != models.ReclamationOpen {
			return models.NewInvalidTransitionError(r.Status, "update reclamation")
		}

		updates := map[string]interface{}{}
		if in.Title != nil {
			updates["title"] = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			updates["description"] = strings.TrimSpace(*in.Description)
		}
		if in.Images != nil {
			images, err := marshalImages(in.Images)
			if err != nil {
				return fmt.Errorf("failed to encode images: %w", err)
			}
			updates["images"] = images
		}
		if len(updates) == 0 {
			out = r
			return nil
		}

		if err := tx.Model(r).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update reclamation: %w", err)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete withdraws an OPEN reclamation.
func (s *ReclamationService) Delete(id, userID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		r, err := s.loadReclamation(tx, id)
		if err != nil {
			return err
		}
		if r.ComplainantID != userID {
			return models.ErrForbidden
		}
		if r.Status != models.ReclamationOpen {
			return models.NewInvalidTransitionError(r.Status, "withdraw reclamation")
		}
		if err := tx.Delete(r).Error; err != nil {
			return fmt.Errorf("failed to delete reclamation: %w", err)
		}
		return nil
	})
}

// ListByStatus is the admin queue view.
func (s *ReclamationService) ListByStatus(status string) ([]models.Reclamation, error) {
	q := s.DB.Preload("Booking").Order("created_at ASC")
	if status != "" {
		parsed, err := models.ParseReclamationStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
		}
		q = q.Where("status = ?", parsed)
	}

	var list []models.Reclamation
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve reclamations: %w", err)
	}
	return list, nil
}

// UpdateSeverity adjusts severity while the case is OPEN or IN_REVIEW.
// The two fixed-penalty types never accept a severity.
func (s *ReclamationService) UpdateSeverity(id uint, severity string) (*models.Reclamation, error) {
	sev, err := models.ParseSeverity(severity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	var out *models.Reclamation
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		r, err := s.loadReclamation(tx, id)
		if err != nil {
			return err
		}
		if r.Type.HasFixedSeverity() {
			return models.ErrSeverityFixed
		}
		if r.Status != models.ReclamationOpen && r.Status != models.ReclamationInReview {
			return models.NewInvalidTransitionError(r.Status, "update severity")
		}
		if err := tx.Model(r).Update("severity", sev).Error; err != nil {
			return fmt.Errorf("failed to update severity: %w", err)
		}
		r.Severity = sev
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Review moves an OPEN reclamation into the admin's hands.
func (s *ReclamationService) Review(id uint) (*models.Reclamation, error) {
	var out *models.Reclamation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		r, err := s.loadReclamation(tx, id)
		if err != nil {
			return err
		}
		if !r.Status.CanTransitionTo(models.ReclamationInReview) {
			return models.NewInvalidTransitionError(r.Status, "start review")
		}
		if err := tx.Model(r).Update("status", models.ReclamationInReview).Error; err != nil {
			return fmt.Errorf("failed to start review: %w", err)
		}
		r.Status = models.ReclamationInReview
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve closes a reclamation under review. With approval the refund and
// penalty points are computed from (role, type, severity) against the
// property's rent and deposit, rounded only here at persistence. Without
// approval the case is rejected; notes are required either way.
func (s *ReclamationService) Resolve(id uint, notes string, approved bool) (*models.Reclamation, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, fmt.Errorf("%w: resolution notes are required", models.ErrValidation)
	}
	if !approved {
		return s.Reject(id, notes)
	}

	var out *models.Reclamation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		r, err := s.loadReclamation(tx, id)
		if err != nil {
			return err
		}
		if !r.Status.CanTransitionTo(models.ReclamationResolved) {
			return models.NewInvalidTransitionError(r.Status, "resolve")
		}

		var booking models.Booking
		if err := tx.Preload("Property").First(&booking, r.BookingID).Error; err != nil {
			return fmt.Errorf("failed to load booking for resolution: %w", err)
		}

		refund, points := ComputePenalty(
			r.ComplainantRole, r.Type, r.Severity,
			booking.Property.NightlyRent, booking.Property.Deposit,
		)
		rounded := utils.Round2(refund)
		now := time.Now().UTC()

		if err := tx.Model(r).Updates(map[string]interface{}{
			"status":           models.ReclamationResolved,
			"refund_amount":    rounded,
			"penalty_points":   points,
			"resolution_notes": strings.TrimSpace(notes),
			"resolved_at":      now,
		}).Error; err != nil {
			return fmt.Errorf("failed to resolve reclamation: %w", err)
		}

		r.Status = models.ReclamationResolved
		r.RefundAmount = &rounded
		r.PenaltyPoints = &points
		r.ResolutionNotes = strings.TrimSpace(notes)
		r.ResolvedAt = &now
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"reclamation_id": out.ID,
		"refund":         *out.RefundAmount,
		"penalty_points": *out.PenaltyPoints,
	}).Info("reclamation resolved")
	return out, nil
}

// Reject closes a reclamation without any refund or penalty.
func (s *ReclamationService) Reject(id uint, notes string) (*models.Reclamation, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, fmt.Errorf("%w: rejection notes are required", models.ErrValidation)
	}

	var out *models.Reclamation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		r, err := s.loadReclamation(tx, id)
		if err != nil {
			return err
		}
		if !r.Status.CanTransitionTo(models.ReclamationRejected) {
			return models.NewInvalidTransitionError(r.Status, "reject")
		}

		now := time.Now().UTC()
		if err := tx.Model(r).Updates(map[string]interface{}{
			"status":           models.ReclamationRejected,
			"resolution_notes": strings.TrimSpace(notes),
			"resolved_at":      now,
		}).Error; err != nil {
			return fmt.Errorf("failed to reject reclamation: %w", err)
		}

		r.Status = models.ReclamationRejected
		r.ResolutionNotes = strings.TrimSpace(notes)
		r.ResolvedAt = &now
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithField("reclamation_id", out.ID).Info("reclamation rejected")
	return out, nil
}
