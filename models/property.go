package models

import (
	"gorm.io/gorm"
)

// Property is read-only context for the booking and reclamation engines:
// it supplies the nightly rent and deposit amounts. Listing management
// itself lives in the property service.
type Property struct {
	gorm.Model

	OwnerID uint   `gorm:"index;column:owner_id" json:"ownerId"`
	Title   string `gorm:"size:255" json:"title"`

	NightlyRent             float64 `gorm:"column:nightly_rent" json:"nightlyRent"`
	Deposit                 float64 `gorm:"column:deposit" json:"deposit"`
	LongStayDiscountPercent float64 `gorm:"column:long_stay_discount_percent" json:"longStayDiscountPercent,omitempty"`

	Owner User `gorm:"foreignKey:OwnerID;references:ID" json:"owner,omitempty"`
}
