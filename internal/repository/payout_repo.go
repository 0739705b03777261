package repository

import (
	"coursepay/internal/domain"
	"coursepay/internal/models"

	"gorm.io/gorm"
)

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// GetOrCreate locates this month's roll-up row for a CMO, creating an
// empty PENDING one if it doesn't exist yet. Concurrent creators racing
// on the (cmo, month) unique index fall back to a re-read.
func (r *PayoutRepository) GetOrCreate(cmoUserID uint, month string) (*models.CMOPayout, error) {
	var p models.CMOPayout
	if err := r.db.Where("cmo_user_id = ? AND month = ?", cmoUserID, month).First(&p).Error; err == nil {
		return &p, nil
	}
	p = models.CMOPayout{CMOUserID: cmoUserID, Month: month, Status: domain.PayoutPending}
	if err := r.db.Create(&p).Error; err != nil {
		var existing models.CMOPayout
		if err2 := r.db.Where("cmo_user_id = ? AND month = ?", cmoUserID, month).First(&existing).Error; err2 == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &p, nil
}

// AddEvent folds one attributed payment into the roll-up row with atomic
// column expressions; total is recomputed from base and bonus in the same
// statement.
func (r *PayoutRepository) AddEvent(id uint, baseCents, bonusCents int64) error {
	return r.db.Model(&models.CMOPayout{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"paid_users":             gorm.Expr("paid_users + 1"),
			"base_commission_cents":  gorm.Expr("base_commission_cents + ?", baseCents),
			"bonus_commission_cents": gorm.Expr("bonus_commission_cents + ?", bonusCents),
			"total_commission_cents": gorm.Expr("total_commission_cents + ?", baseCents+bonusCents),
		}).Error
}

func (r *PayoutRepository) GetByID(id uint) (*models.CMOPayout, error) {
	var p models.CMOPayout
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PayoutRepository) ListByMonth(month string) ([]models.CMOPayout, error) {
	var list []models.CMOPayout
	err := r.db.Where("month = ?", month).Order("cmo_user_id ASC").Find(&list).Error
	return list, err
}

func (r *PayoutRepository) ListByCMO(cmoUserID uint) ([]models.CMOPayout, error) {
	var list []models.CMOPayout
	err := r.db.Where("cmo_user_id = ?", cmoUserID).Order("month DESC").Find(&list).Error
	return list, err
}

// Transition moves a payout between statuses with a conditional update;
// zero rows affected means it was not in the expected prior state.
func (r *PayoutRepository) Transition(id uint, from, to string) (int64, error) {
	res := r.db.Model(&models.CMOPayout{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumn("status", to)
	return res.RowsAffected, res.Error
}

// ListAll returns every roll-up row; reconciliation only.
func (r *PayoutRepository) ListAll() ([]models.CMOPayout, error) {
	var list []models.CMOPayout
	err := r.db.Order("cmo_user_id ASC, month ASC").Find(&list).Error
	return list, err
}

// DeleteAll discards every roll-up row; reconciliation only.
func (r *PayoutRepository) DeleteAll() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CMOPayout{}).Error
}

func (r *PayoutRepository) Create(p *models.CMOPayout) error {
	return r.db.Create(p).Error
}
