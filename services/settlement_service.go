// services/settlement_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rental-backend/models"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"gorm.io/gorm"
)

// SettlementService dispatches queued payouts to the external settlement
// collaborator. The booking transition that queued a payout has already
// committed; a failed dispatch only marks the payout FAILED and is retried
// by the sweep or an explicit admin retry.
type SettlementService struct {
	DB      *gorm.DB
	BaseURL string
	Log     *logrus.Logger

	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

func NewSettlementService(db *gorm.DB, baseURL string, log *logrus.Logger) *SettlementService {
	return &SettlementService{
		DB:      db,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Log:     log,
		client:  &http.Client{Timeout: 10 * time.Second},
		cb:      settlementCircuitBreaker(log),
	}
}

func settlementCircuitBreaker(log *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(
		gobreaker.Settings{
			Name:        "settlementService",
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			Interval:    0,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("circuit breaker state changed")
			},
		},
	)
}

// callSettlement performs the actual completeBooking call.
func (s *SettlementService) callSettlement(bookingID uint) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		body, _ := json.Marshal(map[string]uint{"bookingId": bookingID})
		url := fmt.Sprintf("%s/bookings/%d/complete", s.BaseURL, bookingID)

		resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("settlement returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}

// Dispatch sends one payout and records the outcome. Terminal SENT payouts
// are never re-sent.
func (s *SettlementService) Dispatch(payoutID uint) (*models.SettlementPayout, error) {
	var payout models.SettlementPayout
	if err := s.DB.First(&payout, payoutID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("failed to load payout: %w", err)
	}
	if payout.Status == models.PayoutSent {
		return &payout, nil
	}

	callErr := s.callSettlement(payout.BookingID)
	now := time.Now().UTC()

	updates := map[string]interface{}{
		"attempts": payout.Attempts + 1,
	}
	if callErr != nil {
		updates["status"] = models.PayoutFailed
		updates["last_error"] = callErr.Error()
	} else {
		updates["status"] = models.PayoutSent
		updates["last_error"] = ""
		updates["sent_at"] = now
	}

	if err := s.DB.Model(&payout).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to record payout outcome: %w", err)
	}

	payout.Attempts++
	if callErr != nil {
		payout.Status = models.PayoutFailed
		payout.LastError = callErr.Error()
		s.Log.WithFields(logrus.Fields{
			"payout_id":  payout.ID,
			"booking_id": payout.BookingID,
			"error":      callErr.Error(),
		}).Error("settlement dispatch failed")
		return &payout, callErr
	}

	payout.Status = models.PayoutSent
	payout.LastError = ""
	payout.SentAt = &now
	s.Log.WithFields(logrus.Fields{
		"payout_id":  payout.ID,
		"booking_id": payout.BookingID,
	}).Info("settlement dispatched")
	return &payout, nil
}

// DispatchPending sweeps payouts that have not reached the collaborator yet.
func (s *SettlementService) DispatchPending() {
	var pending []models.SettlementPayout
	if err := s.DB.
		Where("status IN ?", []string{models.PayoutPending, models.PayoutFailed}).
		Order("created_at ASC").
		Find(&pending).Error; err != nil {
		s.Log.WithError(err).Error("failed to list pending payouts")
		return
	}

	for _, p := range pending {
		// Per-payout errors are already recorded on the row.
		_, _ = s.Dispatch(p.ID)
	}
}

// Run sweeps pending payouts until the context is cancelled.
func (s *SettlementService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.DispatchPending()
		}
	}
}

// ListByStatus is the admin payout queue view.
func (s *SettlementService) ListByStatus(status string) ([]models.SettlementPayout, error) {
	q := s.DB.Order("created_at ASC")
	if status != "" {
		switch status {
		case models.PayoutPending, models.PayoutSent, models.PayoutFailed:
			q = q.Where("status = ?", status)
		default:
			return nil, fmt.Errorf("%w: invalid payout status %q", models.ErrValidation, status)
		}
	}

	var list []models.SettlementPayout
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve payouts: %w", err)
	}
	return list, nil
}
