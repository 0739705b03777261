package repository

import (
	"coursepay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttributionRepository struct {
	db *gorm.DB
}

func NewAttributionRepository(db *gorm.DB) *AttributionRepository {
	return &AttributionRepository{db: db}
}

// Create inserts a ledger row. The unique index on order_id is the
// idempotency guard; a duplicate surfaces as gorm.ErrDuplicatedKey.
func (r *AttributionRepository) Create(a *models.PaymentAttribution) error {
	return r.db.Create(a).Error
}

func (r *AttributionRepository) GetByOrderID(orderID string) (*models.PaymentAttribution, error) {
	var a models.PaymentAttribution
	if err := r.db.Where("order_id = ?", orderID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttributionRepository) ListByCreator(creatorID uint, limit, offset int) ([]models.PaymentAttribution, error) {
	var list []models.PaymentAttribution
	err := r.db.Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *AttributionRepository) CountByCreator(creatorID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.PaymentAttribution{}).Where("creator_id = ?", creatorID).Count(&n).Error
	return n, err
}

func (r *AttributionRepository) CountByCreatorMonth(creatorID uint, month string) (int64, error) {
	var n int64
	err := r.db.Model(&models.PaymentAttribution{}).
		Where("creator_id = ? AND payment_month = ?", creatorID, month).
		Count(&n).Error
	return n, err
}

func (r *AttributionRepository) SumCommissionByCreator(creatorID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.PaymentAttribution{}).
		Where("creator_id = ?", creatorID).
		Select("COALESCE(SUM(commission_cents), 0)").
		Scan(&total).Error
	return total, err
}

// CountForCMOYear counts ledger rows attributed through the CMO's
// current subordinates within a calendar year ("2026-%" prefix). The row
// for the event being processed is already inserted when this runs, so
// the count includes the triggering payment.
func (r *AttributionRepository) CountForCMOYear(cmoUserID uint, yearPrefix string) (int64, error) {
	var n int64
	err := r.db.Model(&models.PaymentAttribution{}).
		Joins("JOIN creator_profiles cp ON cp.id = payment_attributions.creator_id").
		Where("cp.parent_cmo_id = ? AND payment_attributions.payment_month LIKE ?", cmoUserID, yearPrefix+"%").
		Count(&n).Error
	return n, err
}

// ListForCMO returns every ledger row attributed through the CMO's
// current subordinates in replay order.
func (r *AttributionRepository) ListForCMO(cmoUserID uint) ([]models.PaymentAttribution, error) {
	var list []models.PaymentAttribution
	err := r.db.Model(&models.PaymentAttribution{}).
		Joins("JOIN creator_profiles cp ON cp.id = payment_attributions.creator_id").
		Where("cp.parent_cmo_id = ?", cmoUserID).
		Order("payment_attributions.created_at ASC, payment_attributions.id ASC").
		Find(&list).Error
	return list, err
}

// EnsureUserAttribution records the permanent user -> creator mapping.
// First write wins: a conflicting insert for an already-attributed user
// is silently dropped by the storage constraint.
func (r *AttributionRepository) EnsureUserAttribution(userID, creatorID uint) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.UserAttribution{UserID: userID, CreatorID: creatorID}).Error
}

func (r *AttributionRepository) GetUserAttribution(userID uint) (*models.UserAttribution, error) {
	var ua models.UserAttribution
	if err := r.db.Where("user_id = ?", userID).First(&ua).Error; err != nil {
		return nil, err
	}
	return &ua, nil
}
