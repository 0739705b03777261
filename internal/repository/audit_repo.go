package repository

import (
	"coursepay/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(a *models.AuditLog) error {
	return r.db.Create(a).Error
}

func (r *AuditLogRepository) ListByAction(action string, limit, offset int) ([]models.AuditLog, error) {
	var list []models.AuditLog
	err := r.db.Where("action = ?", action).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
