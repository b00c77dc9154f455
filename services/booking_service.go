// services/booking_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"rental-backend/config"
	"rental-backend/models"
	"rental-backend/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BookingService owns the booking lifecycle: creation, negotiation,
// payment confirmation, the checkout handshake and the dispute flag.
// Every transition is applied inside a transaction with an optimistic
// version check so concurrent conflicting requests cannot both win.
type BookingService struct {
	DB  *gorm.DB
	Cfg config.Settings
	Log *logrus.Logger
}

func NewBookingService(db *gorm.DB, cfg config.Settings, log *logrus.Logger) *BookingService {
	return &BookingService{DB: db, Cfg: cfg, Log: log}
}

type CreateBookingInput struct {
	TenantID       uint
	PropertyID     uint
	CheckIn        string
	CheckOut       string
	Guests         int
	RequestedPrice *float64
}

type UpdateBookingInput struct {
	CheckIn        *string
	CheckOut       *string
	Guests         *int
	RequestedPrice *float64
}

// NegotiationRejection is the structured PRICE_TOO_LOW outcome: a normal
// business result, not an error. The booking is left untouched.
type NegotiationRejection struct {
	MinimumPrice float64 `json:"minimumPrice"`
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", models.ErrValidation, value)
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func validateStay(checkIn, checkOut time.Time) error {
	if !checkOut.After(checkIn) {
		return fmt.Errorf("%w: check-out must be after check-in", models.ErrValidation)
	}
	if checkIn.Before(today()) {
		return fmt.Errorf("%w: check-in must not be in the past", models.ErrValidation)
	}
	return nil
}

func nightsBetween(checkIn, checkOut time.Time) int {
	n := int(checkOut.Sub(checkIn).Hours() / 24)
	if n < 1 {
		n = 1
	}
	return n
}

// listTotal computes the list price for a stay, applying the property's
// long-stay discount when the stay is long enough.
func (s *BookingService) listTotal(p *models.Property, nights int) (float64, float64) {
	total := p.NightlyRent * float64(nights)
	if nights >= s.Cfg.LongStayMinNights && p.LongStayDiscountPercent > 0 {
		return total * (1 - p.LongStayDiscountPercent/100), p.LongStayDiscountPercent
	}
	return total, 0
}

func (s *BookingService) loadBooking(tx *gorm.DB, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := tx.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking %d: %w", id, err)
	}
	return &b, nil
}

func (s *BookingService) loadProperty(tx *gorm.DB, id uint) (*models.Property, error) {
	var p models.Property
	if err := tx.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("failed to load property %d: %w", id, err)
	}
	return &p, nil
}

// applyTransition moves a booking to target with an optimistic version
// check. The loser of a concurrent race gets ErrConcurrentUpdate instead of
// silently overwriting. Entering an active state claims the tenant's
// current-booking slot; the slot's unique index turns a concurrent claim
// into ErrActiveBookingExists.
func (s *BookingService) applyTransition(tx *gorm.DB, b *models.Booking, target models.BookingStatus, action string, extra map[string]interface{}) error {
	if !b.Status.CanTransitionTo(target) {
		return models.NewInvalidTransitionError(b.Status, action)
	}

	updates := map[string]interface{}{
		"status":  target,
		"version": b.Version + 1,
	}
	if target.IsActive() {
		updates["current_for_tenant"] = b.TenantID
	} else {
		updates["current_for_tenant"] = nil
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&models.Booking{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(updates)
	if res.Error != nil {
		if isDuplicateKeyError(res.Error) {
			return models.ErrActiveBookingExists
		}
		return fmt.Errorf("failed to update booking %d: %w", b.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrConcurrentUpdate
	}

	b.Status = target
	b.Version++
	if target.IsActive() {
		tenantID := b.TenantID
		b.CurrentForTenant = &tenantID
	} else {
		b.CurrentForTenant = nil
	}
	return nil
}

// assertNoActiveBooking pre-checks the single current-booking slot per
// tenant for the friendly error in the common case. The race between two
// different bookings of one tenant is closed by the current_for_tenant
// unique index, not by this count.
func (s *BookingService) assertNoActiveBooking(tx *gorm.DB, tenantID, excludeID uint) error {
	activeStatuses := []models.BookingStatus{models.StatusConfirmed, models.StatusTenantCheckedOut}
	var count int64
	if err := tx.Model(&models.Booking{}).
		Where("tenant_id = ? AND id <> ? AND status IN ?", tenantID, excludeID, activeStatuses).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check active bookings: %w", err)
	}
	if count > 0 {
		return models.ErrActiveBookingExists
	}
	return nil
}

// Create opens a booking. A non-zero requested price differing from the
// list total starts a negotiation; below the floor it is rejected as
// PRICE_TOO_LOW without creating anything.
func (s *BookingService) Create(in CreateBookingInput) (*models.Booking, *NegotiationRejection, error) {
	checkIn, err := parseDate(in.CheckIn)
	if err != nil {
		return nil, nil, err
	}
	checkOut, err := parseDate(in.CheckOut)
	if err != nil {
		return nil, nil, err
	}
	if err := validateStay(checkIn, checkOut); err != nil {
		return nil, nil, err
	}
	if in.Guests < 1 {
		return nil, nil, fmt.Errorf("%w: at least one guest is required", models.ErrValidation)
	}

	var tenant models.User
	if err := s.DB.First(&tenant, in.TenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	property, err := s.loadProperty(s.DB, in.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	if property.OwnerID == in.TenantID {
		return nil, nil, fmt.Errorf("%w: cannot book your own property", models.ErrValidation)
	}

	nights := nightsBetween(checkIn, checkOut)
	total, discountPct := s.listTotal(property, nights)

	booking := models.Booking{
		ReferenceCode:           uuid.NewString(),
		TenantID:                in.TenantID,
		PropertyID:              in.PropertyID,
		CheckIn:                 checkIn,
		CheckOut:                checkOut,
		Guests:                  in.Guests,
		TotalPrice:              utils.Round2(total),
		LongStayDiscountPercent: discountPct,
		Status:                  models.StatusPendingPayment,
	}

	if in.RequestedPrice != nil && *in.RequestedPrice > 0 && *in.RequestedPrice != booking.TotalPrice {
		floor := s.Cfg.NegotiationFloorRatio * total
		if *in.RequestedPrice < floor {
			return nil, &NegotiationRejection{MinimumPrice: utils.Round2(floor)}, nil
		}

		requested := utils.Round2(*in.RequestedPrice)
		percent := utils.Round2((1 - requested/total) * 100)
		expires := time.Now().UTC().Add(s.Cfg.NegotiationTTL)

		booking.Status = models.StatusPendingNegotiation
		booking.RequestedPrice = &requested
		booking.NegotiationPercent = &percent
		booking.NegotiationExpiresAt = &expires
	}

	if err := s.DB.Create(&booking).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.Log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"tenant_id":  booking.TenantID,
		"status":     booking.Status,
	}).Info("booking created")

	return &booking, nil, nil
}

// Accept confirms a negotiated price. The host fixes the total at the
// requested value; the tenant's current-booking slot must be free.
func (s *BookingService) Accept(bookingID, ownerID uint) (*models.Booking, error) {
	var booking *models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.loadBooking(tx, bookingID)
		if err != nil {
			return err
		}
		property, err := s.loadProperty(tx, b.PropertyID)
		if err != nil {
			return err
		}
		if property.OwnerID != ownerID {
			return models.ErrForbidden
		}
		if b.Status != models.StatusPendingNegotiation {
			return models.NewInvalidTransitionError(b.Status, "accept negotiation")
		}
		if b.NegotiationExpiresAt != nil && time.Now().UTC().After(*b.NegotiationExpiresAt) {
			return models.ErrNegotiationExpired
		}
		if b.RequestedPrice == nil {
			return fmt.Errorf("%w: booking has no requested price", models.ErrValidation)
		}
		if err := s.assertNoActiveBooking(tx, b.TenantID, b.ID); err != nil {
			return err
		}

		if err := s.applyTransition(tx, b, models.StatusConfirmed, "accept negotiation", map[string]interface{}{
			"total_price": utils.Round2(*b.RequestedPrice),
		}); err != nil {
			return err
		}
		b.TotalPrice = utils.Round2(*b.RequestedPrice)
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithField("booking_id", booking.ID).Info("negotiation accepted")
	return booking, nil
}

// Reject turns down the tenant's offer. The tenant may then resubmit a new
// price through Update or cancel.
func (s *BookingService) Reject(bookingID, ownerID uint) (*models.Booking, error) {
	var booking *models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.loadBooking(tx, bookingID)
		if err != nil {
			return err
		}
		property, err := s.loadProperty(tx, b.PropertyID)
		if err != nil {
			return err
		}
		if property.OwnerID != ownerID {
			return models.ErrForbidden
		}
		if b.Status != models.StatusPendingNegotiation {
			return models.NewInvalidTransitionError(b.Status, "reject negotiation")
		}
		if err := s.applyTransition(tx, b, models.StatusNegotiationRejected, "reject negotiation", nil); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithField("booking_id", booking.ID).Info("negotiation rejected")
	return booking, nil
}

// Update edits a booking while it is still pending. Renegotiating after a
// rejection requires a new requested price; an offer below the floor
// returns the PRICE_TOO_LOW outcome and leaves the booking untouched.
func (s *BookingService) Update(bookingID, userID uint, in UpdateBookingInput) (*models.Booking, *NegotiationRejection, error) {
	var booking *models.Booking
	var rejection *NegotiationRejection

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.loadBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if b.TenantID != userID {
			return models.ErrForbidden
		}
		if !b.Status.IsEditable() {
			return models.NewInvalidTransitionError(b.Status, "update")
		}

		checkIn := b.CheckIn
		checkOut := b.CheckOut
		if in.CheckIn != nil {
			if checkIn, err = parseDate(*in.CheckIn); err != nil {
				return err
			}
		}
		if in.CheckOut != nil {
			if checkOut, err = parseDate(*in.CheckOut); err != nil {
				return err
			}
		}
		if err := validateStay(checkIn, checkOut); err != nil {
			return err
		}

		guests := b.Guests
		if in.Guests != nil {
			if *in.Guests < 1 {
				return fmt.Errorf("%w: at least one guest is required", models.ErrValidation)
			}
			guests = *in.Guests
		}

		if b.Status == models.StatusNegotiationRejected && in.RequestedPrice == nil {
			return fmt.Errorf("%w: a new requested price is required to renegotiate", models.ErrValidation)
		}

		property, err := s.loadProperty(tx, b.PropertyID)
		if err != nil {
			return err
		}
		nights := nightsBetween(checkIn, checkOut)
		total, discountPct := s.listTotal(property, nights)

		updates := map[string]interface{}{
			"check_in":                   checkIn,
			"check_out":                  checkOut,
			"guests":                     guests,
			"total_price":                utils.Round2(total),
			"long_stay_discount_percent": discountPct,
		}

		target := b.Status
		action := "update"
		if in.RequestedPrice != nil {
			if *in.RequestedPrice <= 0 {
				return fmt.Errorf("%w: requested price must be positive", models.ErrValidation)
			}
			floor := s.Cfg.NegotiationFloorRatio * total
			if *in.RequestedPrice < floor {
				// Domain rejection, not an error: nothing is written.
				rejection = &NegotiationRejection{MinimumPrice: utils.Round2(floor)}
				return nil
			}

			requested := utils.Round2(*in.RequestedPrice)
			percent := utils.Round2((1 - requested/total) * 100)
			expires := time.Now().UTC().Add(s.Cfg.NegotiationTTL)
			updates["requested_price"] = requested
			updates["negotiation_percent"] = percent
			updates["negotiation_expires_at"] = expires

			target = models.StatusPendingNegotiation
			action = "renegotiate"
		}

		if target == b.Status {
			updates["version"] = b.Version + 1
			res := tx.Model(&models.Booking{}).
				Where("id = ? AND version = ?", b.ID, b.Version).
				Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("failed to update booking %d: %w", b.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return models.ErrConcurrentUpdate
			}
			b.Version++
		} else if err := s.applyTransition(tx, b, target, action, updates); err != nil {
			return err
		}

		booking, err = s.loadBooking(tx, b.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if rejection != nil {
		return nil, rejection, nil
	}
	return booking, nil, nil
}

// Cancel ends a pending booking. Tenants may cancel anything pre-payment,
// including after a rejected negotiation; hosts only before confirmation.
func (s *BookingService) Cancel(bookingID, userID uint) (*models.Booking, error) {
	var booking *models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.loadBooking(tx, bookingID)
		if err != nil {
			return err
		}
		property, err := s.loadProperty(tx, b.PropertyID)
		if err != nil {
			return err
		}

		var target models.BookingStatus
		switch userID {
		case b.TenantID:
			target = models.StatusCancelledByTenant
		case property.OwnerID:
			target = models.StatusCancelledByHost
		default:
			return models.ErrForbidden
		}

		if err := s.applyTransition(tx, b, target, "cancel booking", nil); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"status":     booking.Status,
	}).Info("booking cancelled")
	return booking, nil
}

// Pay records successful payment settlement and confirms the booking. The
// current-booking uniqueness check runs in the same transaction as the
// status change.
func (s *BookingService) Pay(bookingID, tenantID uint, txHash string) (*models.Booking, error) {
	var booking *models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.loadBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if b.TenantID != tenantID {
			return models.ErrForbidden
		}
		if b.Status != models.StatusPendingPayment {
			return models.NewInvalidTransitionError(b.Status, "confirm payment")
		}
		if err := s.assertNoActiveBooking(tx, b.TenantID, b.ID); err != nil {
			return err
		}
		if err := s.applyTransition(tx, b, models.StatusConfirmed, "confirm payment", map[string]interface{}{
			"tx_hash": txHash,
		}); err != nil {
			return err
		}
		b.TxHash = txHash
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"tx_hash":    txHash,
	}).Info("booking confirmed after payment")
	return booking, nil
}

// TenantCheckout marks that the tenant has left the property.
func (s *BookingService) TenantCheckout(bookingID, tenantID uint) (*models.Booking, error) {
	var booking *models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.loadBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if b.TenantID != tenantID {
			return models.ErrForbidden
		}
		if b.Status != models.StatusConfirmed {
			return models.NewInvalidTransitionError(b.Status, "tenant checkout")
		}
		if err := s.applyTransition(tx, b, models.StatusTenantCheckedOut, "tenant checkout", nil); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithField("booking_id", booking.ID).Info("tenant checked out")
	return booking, nil
}

// OwnerConfirmCheckout completes the booking and records the settlement
// payout in the same transaction. Dispatching the payout to the external
// settlement collaborator is decoupled; its failure never rolls back the
// completed booking.
func (s *BookingService) OwnerConfirmCheckout(bookingID, ownerID uint) (*models.Booking, *models.SettlementPayout, error) {
	var booking *models.Booking
	var payout models.SettlementPayout

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.loadBooking(tx, bookingID)
		if err != nil {
			return err
		}
		property, err := s.loadProperty(tx, b.PropertyID)
		if err != nil {
			return err
		}
		if property.OwnerID != ownerID {
			return models.ErrForbidden
		}
		if b.Status != models.StatusTenantCheckedOut {
			return models.NewInvalidTransitionError(b.Status, "confirm checkout")
		}
		if err := s.applyTransition(tx, b, models.StatusCompleted, "confirm checkout", nil); err != nil {
			return err
		}

		payout = models.SettlementPayout{
			BookingID: b.ID,
			Status:    models.PayoutPending,
		}
		if err := tx.Create(&payout).Error; err != nil {
			return fmt.Errorf("failed to create settlement payout: %w", err)
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"payout_id":  payout.ID,
	}).Info("booking completed, payout queued")
	return booking, &payout, nil
}

// ReportDispute flags the booking; independent of any reclamation filed
// against it.
func (s *BookingService) ReportDispute(bookingID, userID uint) (*models.Booking, error) {
	var booking *models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.loadBooking(tx, bookingID)
		if err != nil {
			return err
		}
		property, err := s.loadProperty(tx, b.PropertyID)
		if err != nil {
			return err
		}
		if userID != b.TenantID && userID != property.OwnerID {
			return models.ErrForbidden
		}
		if err := s.applyTransition(tx, b, models.StatusInDispute, "report dispute", nil); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithField("booking_id", booking.ID).Warn("booking disputed")
	return booking, nil
}

// GetByID returns one booking with its relations.
func (s *BookingService) GetByID(bookingID uint) (*models.Booking, error) {
	var b models.Booking
	if err := s.DB.Preload("Tenant").Preload("Property").First(&b, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to retrieve booking: %w", err)
	}
	return &b, nil
}

// CurrentByTenant returns the tenant's sole active booking, if any.
func (s *BookingService) CurrentByTenant(tenantID uint) (*models.Booking, error) {
	var b models.Booking
	err := s.DB.Preload("Property").
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]models.BookingStatus{models.StatusConfirmed, models.StatusTenantCheckedOut}).
		Order("updated_at DESC").
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to retrieve current booking: %w", err)
	}
	return &b, nil
}

// PendingByTenant lists open or rejected negotiations for a tenant.
func (s *BookingService) PendingByTenant(tenantID uint) ([]models.Booking, error) {
	return s.listByTenant(tenantID, []models.BookingStatus{
		models.StatusPendingNegotiation,
		models.StatusNegotiationRejected,
	})
}

// AwaitingPaymentByTenant lists bookings the tenant still has to pay.
func (s *BookingService) AwaitingPaymentByTenant(tenantID uint) ([]models.Booking, error) {
	return s.listByTenant(tenantID, []models.BookingStatus{models.StatusPendingPayment})
}

// withLegacyPending widens a status filter so stored legacy PENDING rows
// are fetched too; they resolve to one of the split pending states on load
// and keepStatuses decides membership on the normalized value.
func withLegacyPending(statuses []models.BookingStatus) []models.BookingStatus {
	return append([]models.BookingStatus{models.StatusLegacyPending}, statuses...)
}

func keepStatuses(rows []models.Booking, statuses []models.BookingStatus) []models.Booking {
	list := make([]models.Booking, 0, len(rows))
	for _, b := range rows {
		for _, status := range statuses {
			if b.Status == status {
				list = append(list, b)
				break
			}
		}
	}
	return list
}

func (s *BookingService) listByTenant(tenantID uint, statuses []models.BookingStatus) ([]models.Booking, error) {
	var rows []models.Booking
	if err := s.DB.Preload("Property").
		Where("tenant_id = ? AND status IN ?", tenantID, withLegacyPending(statuses)).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve bookings: %w", err)
	}
	return keepStatuses(rows, statuses), nil
}

// ByOwner lists bookings on an owner's properties, filtered by view:
// "current" (active stays), "confirmed", or "negotiations".
func (s *BookingService) ByOwner(ownerID uint, view string) ([]models.Booking, error) {
	var statuses []models.BookingStatus
	switch view {
	case "current":
		statuses = []models.BookingStatus{models.StatusConfirmed, models.StatusTenantCheckedOut}
	case "confirmed":
		statuses = []models.BookingStatus{models.StatusConfirmed}
	case "negotiations":
		statuses = []models.BookingStatus{models.StatusPendingNegotiation}
	default:
		return nil, fmt.Errorf("%w: unknown view %q", models.ErrValidation, view)
	}

	var rows []models.Booking
	if err := s.DB.Preload("Tenant").Preload("Property").
		Joins("JOIN properties ON properties.id = bookings.property_id").
		Where("properties.owner_id = ? AND bookings.status IN ?", ownerID, withLegacyPending(statuses)).
		Order("bookings.created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve owner bookings: %w", err)
	}
	return keepStatuses(rows, statuses), nil
}

// All returns every booking with relations, newest first.
func (s *BookingService) All() ([]models.Booking, error) {
	var list []models.Booking
	if err := s.DB.
		Preload("Tenant").
		Preload("Property").
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve bookings: %w", err)
	}
	return list, nil
}
