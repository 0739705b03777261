package repository

import (
	"coursepay/internal/models"

	"gorm.io/gorm"
)

type DiscountRepository struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

func (r *DiscountRepository) GetActiveByCode(code string) (*models.DiscountCode, error) {
	var d models.DiscountCode
	if err := r.db.Where("code = ? AND is_active = ?", code, true).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// IncrementUsage bumps the usage counter atomically.
func (r *DiscountRepository) IncrementUsage(id uint) error {
	return r.db.Model(&models.DiscountCode{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}

func (r *DiscountRepository) Create(d *models.DiscountCode) error {
	return r.db.Create(d).Error
}
