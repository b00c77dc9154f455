package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PayoutPending = "PENDING"
	PayoutSent    = "SENT"
	PayoutFailed  = "FAILED"
)

// SettlementPayout is the outbox record for the external settlement call.
// It is created in the same transaction as the COMPLETED transition; the
// HTTP dispatch happens afterwards and is retried independently.
type SettlementPayout struct {
	gorm.Model

	BookingID uint   `gorm:"column:booking_id;uniqueIndex" json:"bookingId"`
	Status    string `gorm:"column:status;size:16;default:PENDING;index" json:"status"`
	Attempts  int    `gorm:"column:attempts;default:0" json:"attempts"`
	LastError string `gorm:"column:last_error;type:text" json:"lastError,omitempty"`

	SentAt *time.Time `gorm:"column:sent_at" json:"sentAt,omitempty"`
}
