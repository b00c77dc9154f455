package models

import (
	"time"

	"gorm.io/gorm"
)

type Booking struct {
	gorm.Model

	ReferenceCode string `gorm:"column:reference_code;uniqueIndex;size:64" json:"referenceCode"`

	TenantID   uint `gorm:"index;column:tenant_id" json:"tenantId"`
	PropertyID uint `gorm:"index;column:property_id" json:"propertyId"`

	CheckIn  time.Time `gorm:"column:check_in" json:"checkIn"`
	CheckOut time.Time `gorm:"column:check_out" json:"checkOut"`
	Guests   int       `gorm:"column:guests;default:1" json:"guests"`

	TotalPrice              float64  `gorm:"column:total_price" json:"totalPrice"`
	LongStayDiscountPercent float64  `gorm:"column:long_stay_discount_percent" json:"longStayDiscountPercent,omitempty"`
	RequestedPrice          *float64 `gorm:"column:requested_price" json:"requestedPrice,omitempty"`
	NegotiationPercent      *float64 `gorm:"column:negotiation_percent" json:"negotiationPercent,omitempty"`

	NegotiationExpiresAt *time.Time `gorm:"column:negotiation_expires_at" json:"negotiationExpiresAt,omitempty"`

	TxHash string        `gorm:"column:tx_hash;size:128" json:"txHash,omitempty"`
	Status BookingStatus `gorm:"column:status;size:32;index" json:"status"`

	// Version guards concurrent transitions: every state change bumps it and
	// is applied with a WHERE version = ? check.
	Version uint `gorm:"column:version;default:1" json:"-"`

	// CurrentForTenant mirrors TenantID while the booking occupies the
	// tenant's single active slot and is NULL otherwise. The unique index
	// rejects a second concurrent confirmation even when it targets a
	// different booking row.
	CurrentForTenant *uint `gorm:"column:current_for_tenant;uniqueIndex" json:"-"`

	Tenant   User     `gorm:"foreignKey:TenantID;references:ID" json:"tenant,omitempty"`
	Property Property `gorm:"foreignKey:PropertyID;references:ID" json:"property,omitempty"`
}

// AfterFind normalizes rows still carrying the legacy PENDING status.
func (b *Booking) AfterFind(tx *gorm.DB) error {
	b.Status = NormalizeBookingStatus(b.Status, b.RequestedPrice)
	return nil
}

// Nights returns the length of stay in nights; dates are calendar days.
func (b *Booking) Nights() int {
	n := int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
	if n < 1 {
		n = 1
	}
	return n
}
