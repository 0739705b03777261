package models

import (
	"time"
)

// PaymentAttribution is the append-only ledger of confirmed payments.
// OrderID is the idempotency key: the unique index guarantees at most one
// row per external order, ever. Rows are never updated or deleted; every
// derived aggregate must be recomputable from this table alone.
type PaymentAttribution struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	OrderID             string    `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	PayerID             uint      `gorm:"not null;index" json:"payer_id"`
	CreatorID           *uint     `gorm:"index" json:"creator_id,omitempty"` // nil = direct (unattributed) sale
	EnrollmentRef       string    `gorm:"size:64;not null" json:"enrollment_ref"`
	OriginalAmountCents int64     `gorm:"not null" json:"original_amount_cents"`
	DiscountCents       int64     `gorm:"not null;default:0" json:"discount_cents"`
	FinalAmountCents    int64     `gorm:"not null" json:"final_amount_cents"`
	CommissionRateBps   int64     `gorm:"not null;default:0" json:"commission_rate_bps"`
	CommissionCents     int64     `gorm:"not null;default:0" json:"commission_cents"`
	PaymentMonth        string    `gorm:"size:7;not null;index" json:"payment_month"` // YYYY-MM
	PlanID              string    `gorm:"size:64" json:"plan_id"`
	Channel             string    `gorm:"size:20;not null" json:"channel"`
	CreatedAt           time.Time `gorm:"index" json:"created_at"`
}

func (PaymentAttribution) TableName() string { return "payment_attributions" }

// UserAttribution permanently maps a paying user to the single creator
// credited for them. First write wins; later attempts for the same user
// are ignored, whatever creator they name.
type UserAttribution struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatorID uint      `gorm:"not null;index" json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserAttribution) TableName() string { return "user_attributions" }
