package repository

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"coursepay/internal/models"

	"gorm.io/gorm"
)

type CreatorRepository struct {
	db *gorm.DB
}

func NewCreatorRepository(db *gorm.DB) *CreatorRepository {
	return &CreatorRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *CreatorRepository) WithTx(tx *gorm.DB) *CreatorRepository {
	return &CreatorRepository{db: tx}
}

// generateReferralCode returns an 8-character lowercase hex code.
func generateReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (r *CreatorRepository) GetByID(id uint) (*models.CreatorProfile, error) {
	var p models.CreatorProfile
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CreatorRepository) GetByUserID(userID uint) (*models.CreatorProfile, error) {
	var p models.CreatorProfile
	if err := r.db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CreatorRepository) GetByReferralCode(code string) (*models.CreatorProfile, error) {
	var p models.CreatorProfile
	if err := r.db.Where("referral_code = ?", code).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrCreate returns the profile for a user, creating one with a fresh
// unique referral code if needed.
func (r *CreatorRepository) GetOrCreate(userID uint, parentCMOID *uint) (*models.CreatorProfile, error) {
	if p, err := r.GetByUserID(userID); err == nil {
		return p, nil
	}
	for i := 0; i < 10; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, err
		}
		p := models.CreatorProfile{UserID: userID, ParentCMOID: parentCMOID, ReferralCode: code}
		if err := r.db.Create(&p).Error; err == nil {
			return &p, nil
		}
		// Collision on code or user_id: re-read, then retry with a new code.
		if p2, err := r.GetByUserID(userID); err == nil {
			return p2, nil
		}
	}
	return nil, fmt.Errorf("failed to generate a unique referral code after retries")
}

// IncrementPaidCounters bumps the lifetime counter and, after rolling the
// monthly counter over when the stored month is stale, the monthly one.
// Both statements are atomic column expressions.
func (r *CreatorRepository) IncrementPaidCounters(id uint, month string) error {
	if err := r.db.Model(&models.CreatorProfile{}).
		Where("id = ? AND stats_month <> ?", id, month).
		UpdateColumns(map[string]interface{}{"monthly_paid_users": 0, "stats_month": month}).Error; err != nil {
		return err
	}
	return r.db.Model(&models.CreatorProfile{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"lifetime_paid_users": gorm.Expr("lifetime_paid_users + 1"),
			"monthly_paid_users":  gorm.Expr("monthly_paid_users + 1"),
		}).Error
}

// IncrementLifetime bumps only the lifetime counter; used when the
// payment month is not the current month (late redelivery).
func (r *CreatorRepository) IncrementLifetime(id uint) error {
	return r.db.Model(&models.CreatorProfile{}).
		Where("id = ?", id).
		UpdateColumn("lifetime_paid_users", gorm.Expr("lifetime_paid_users + 1")).Error
}

// CreditBalance adds a commission to the available balance.
func (r *CreatorRepository) CreditBalance(id uint, amountCents int64) error {
	return r.db.Model(&models.CreatorProfile{}).
		Where("id = ?", id).
		UpdateColumn("available_balance_cents", gorm.Expr("available_balance_cents + ?", amountCents)).Error
}

// ApplyWithdrawal deducts the gross amount from the available balance and
// adds the net payable to the running withdrawn total, guarded by the
// current balance so a concurrent drain cannot push it negative. Returns
// the number of rows affected; zero means the balance no longer covers
// the amount.
func (r *CreatorRepository) ApplyWithdrawal(id uint, amountCents, netCents int64) (int64, error) {
	res := r.db.Model(&models.CreatorProfile{}).
		Where("id = ? AND available_balance_cents >= ?", id, amountCents).
		UpdateColumns(map[string]interface{}{
			"available_balance_cents": gorm.Expr("available_balance_cents - ?", amountCents),
			"total_withdrawn_cents":   gorm.Expr("total_withdrawn_cents + ?", netCents),
		})
	return res.RowsAffected, res.Error
}

// OverwriteAggregates replaces every derived field; reconciliation only.
func (r *CreatorRepository) OverwriteAggregates(id uint, lifetime, monthly int64, month string, balanceCents, withdrawnCents int64) error {
	return r.db.Model(&models.CreatorProfile{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"lifetime_paid_users":     lifetime,
			"monthly_paid_users":      monthly,
			"stats_month":             month,
			"available_balance_cents": balanceCents,
			"total_withdrawn_cents":   withdrawnCents,
		}).Error
}

func (r *CreatorRepository) ListAll() ([]models.CreatorProfile, error) {
	var list []models.CreatorProfile
	err := r.db.Order("id ASC").Find(&list).Error
	return list, err
}

// SubordinateIDs returns profile ids of creators currently supervised by
// the given CMO user.
func (r *CreatorRepository) SubordinateIDs(cmoUserID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.CreatorProfile{}).
		Where("parent_cmo_id = ?", cmoUserID).
		Pluck("id", &ids).Error
	return ids, err
}

// ParentCMOIDs returns the distinct CMO user ids that currently have
// subordinates.
func (r *CreatorRepository) ParentCMOIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.CreatorProfile{}).
		Where("parent_cmo_id IS NOT NULL").
		Distinct().
		Pluck("parent_cmo_id", &ids).Error
	return ids, err
}
