package models

import (
	"time"
)

// CMOPayout is the monthly roll-up of commission owed to a CMO for
// payments attributed through its subordinate creators. One row per
// (CMO, month); fully regenerable by replaying the attribution ledger.
// Status is an admin-driven flag and is the only field carried over when
// reconciliation rebuilds the row.
type CMOPayout struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	CMOUserID           uint      `gorm:"not null;index;uniqueIndex:idx_cmo_payout_month" json:"cmo_user_id"`
	Month               string    `gorm:"size:7;not null;uniqueIndex:idx_cmo_payout_month" json:"month"` // YYYY-MM
	PaidUsers           int64     `gorm:"not null;default:0" json:"paid_users"`
	BaseCommissionCents int64     `gorm:"not null;default:0" json:"base_commission_cents"`
	BonusCommissionCents int64    `gorm:"not null;default:0" json:"bonus_commission_cents"`
	TotalCommissionCents int64    `gorm:"not null;default:0" json:"total_commission_cents"`
	Status              string    `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (CMOPayout) TableName() string { return "cmo_payouts" }
