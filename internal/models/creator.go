package models

import (
	"time"

	"gorm.io/gorm"
)

// CreatorProfile carries the per-creator aggregates derived from the
// attribution ledger. Balance only grows via a ledger commission credit
// and only shrinks via an approved withdrawal; the reconciliation job may
// overwrite every derived field from the ledger at any time.
type CreatorProfile struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	UserID                uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	ParentCMOID           *uint          `gorm:"index" json:"parent_cmo_id,omitempty"` // users.id of supervising CMO
	ReferralCode          string         `gorm:"size:20;uniqueIndex;not null" json:"referral_code"`
	LifetimePaidUsers     int64          `gorm:"not null;default:0" json:"lifetime_paid_users"`
	MonthlyPaidUsers      int64          `gorm:"not null;default:0" json:"monthly_paid_users"`
	StatsMonth            string         `gorm:"size:7;not null;default:''" json:"stats_month"` // month MonthlyPaidUsers refers to
	AvailableBalanceCents int64          `gorm:"not null;default:0" json:"available_balance_cents"`
	TotalWithdrawnCents   int64          `gorm:"not null;default:0" json:"total_withdrawn_cents"` // net amounts paid out
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (CreatorProfile) TableName() string { return "creator_profiles" }

// DiscountCode is a creator-owned promo code. A payment carrying only a
// discount hint attributes to the owning creator.
type DiscountCode struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Code       string         `gorm:"size:32;uniqueIndex;not null" json:"code"`
	CreatorID  *uint          `gorm:"index" json:"creator_id,omitempty"`
	PercentOff int            `gorm:"not null;default:0" json:"percent_off"`
	UsageCount int64          `gorm:"not null;default:0" json:"usage_count"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DiscountCode) TableName() string { return "discount_codes" }
