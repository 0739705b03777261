package models

import (
	"time"

	"gorm.io/gorm"
)

// WithdrawalRequest advances through PENDING -> APPROVED -> PAID, or
// PENDING -> REJECTED. ActiveKey holds the creator id while the request
// is PENDING and is cleared on every transition out of it; the unique
// index on it is what enforces "at most one outstanding pending request
// per creator" even when two requests race past the pre-check.
type WithdrawalRequest struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Reference      string         `gorm:"size:64;uniqueIndex;not null" json:"reference"` // wd-<uuid>
	CreatorID      uint           `gorm:"not null;index" json:"creator_id"`
	MethodID       uint           `gorm:"not null" json:"method_id"`
	AmountCents    int64          `gorm:"not null" json:"amount_cents"`
	FeeBps         int64          `gorm:"not null" json:"fee_bps"`
	FeeCents       int64          `gorm:"not null" json:"fee_cents"`
	NetCents       int64          `gorm:"not null" json:"net_cents"`
	Status         string         `gorm:"size:20;not null;index" json:"status"`
	ActiveKey      *uint          `gorm:"uniqueIndex" json:"-"`
	IdempotencyKey *string        `gorm:"size:128;uniqueIndex" json:"-"`
	ReviewerID     *uint          `json:"reviewer_id,omitempty"`
	RejectReason   string         `gorm:"size:255" json:"reject_reason,omitempty"`
	ReviewedAt     *time.Time     `json:"reviewed_at,omitempty"`
	PaidAt         *time.Time     `json:"paid_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (WithdrawalRequest) TableName() string { return "withdrawal_requests" }

// PayoutMethod is a creator-owned payout destination.
type PayoutMethod struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatorID     uint           `gorm:"not null;index" json:"creator_id"`
	Kind          string         `gorm:"size:20;not null" json:"kind"` // BANK, UPI, MOBILE
	AccountName   string         `gorm:"size:255;not null" json:"account_name"`
	AccountNumber string         `gorm:"size:64;not null" json:"account_number"`
	BankCode      string         `gorm:"size:32" json:"bank_code,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PayoutMethod) TableName() string { return "payout_methods" }
