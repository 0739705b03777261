package database

import (
	"strconv"

	"coursepay/config"
	"coursepay/internal/domain"
	"coursepay/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
		// Unique violations must surface as gorm.ErrDuplicatedKey: the
		// ledger insert and the one-pending-withdrawal constraint depend
		// on catching them.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.CreatorProfile{},
		&models.DiscountCode{},
		&models.PaymentAttribution{},
		&models.UserAttribution{},
		&models.CMOPayout{},
		&models.WithdrawalRequest{},
		&models.PayoutMethod{},
		&models.Notification{},
		&models.AuditLog{},
		&models.SystemSetting{},
	)
}

// SeedAdmin creates the initial admin account and default settings when
// they don't exist yet.
func SeedAdmin(db *gorm.DB, cfg *config.Config) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin-change-me"), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Error("seed admin: hash", zap.Error(err))
			return
		}
		admin := &models.User{
			Email:        "admin@coursepay.local",
			Name:         "Administrator",
			PasswordHash: string(hash),
			Role:         domain.RoleAdmin,
		}
		if err := db.Create(admin).Error; err != nil {
			zap.L().Error("seed admin: create", zap.Error(err))
		}
	}

	defaults := map[string]string{
		domain.SettingWithdrawalMinCents: strconv.FormatInt(cfg.Withdrawal.MinAmountCents, 10),
		domain.SettingWithdrawalFeeBps:   strconv.FormatInt(cfg.Withdrawal.FeeBps, 10),
	}
	for k, v := range defaults {
		var n int64
		db.Model(&models.SystemSetting{}).Where("`key` = ?", k).Count(&n)
		if n == 0 {
			if err := db.Create(&models.SystemSetting{Key: k, Value: v}).Error; err != nil {
				zap.L().Error("seed setting", zap.String("key", k), zap.Error(err))
			}
		}
	}
}
