package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"coursepay/internal/database"
	"coursepay/internal/domain"
	"coursepay/internal/models"
	"coursepay/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// newTestDB opens a per-test in-memory sqlite database. cache=shared
// keeps the pool's connections on the same database; TranslateError makes
// unique violations surface as gorm.ErrDuplicatedKey like the MySQL
// driver does, so the idempotency guards behave as in production.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

type testEnv struct {
	db             *gorm.DB
	attrRepo       *repository.AttributionRepository
	creatorRepo    *repository.CreatorRepository
	discountRepo   *repository.DiscountRepository
	payoutRepo     *repository.PayoutRepository
	withdrawalRepo *repository.WithdrawalRepository
	settingRepo    *repository.SettingRepository
	notifSvc       *NotificationService
	attrSvc        *AttributionService
	reconcileSvc   *ReconcileService
}

func newTestEnv(t *testing.T) *testEnv {
	db := newTestDB(t)
	env := &testEnv{
		db:             db,
		attrRepo:       repository.NewAttributionRepository(db),
		creatorRepo:    repository.NewCreatorRepository(db),
		discountRepo:   repository.NewDiscountRepository(db),
		payoutRepo:     repository.NewPayoutRepository(db),
		withdrawalRepo: repository.NewWithdrawalRepository(db),
		settingRepo:    repository.NewSettingRepository(db),
	}
	env.notifSvc = NewNotificationService(repository.NewNotificationRepository(db), nil)
	env.attrSvc = NewAttributionService(env.attrRepo, env.creatorRepo, env.discountRepo, env.payoutRepo, env.notifSvc)
	env.reconcileSvc = NewReconcileService(env.attrRepo, env.creatorRepo, env.payoutRepo, env.withdrawalRepo)
	return env
}

// newCreator provisions a user with a creator profile, optionally under a
// CMO user.
func (e *testEnv) newCreator(t *testing.T, email string, parentCMOID *uint) *models.CreatorProfile {
	t.Helper()
	u := &models.User{Email: email, Name: email, PasswordHash: "x", Role: domain.RoleCreator}
	require.NoError(t, e.db.Create(u).Error)
	p, err := e.creatorRepo.GetOrCreate(u.ID, parentCMOID)
	require.NoError(t, err)
	return p
}

func (e *testEnv) newCMOUser(t *testing.T, email string) uint {
	t.Helper()
	u := &models.User{Email: email, Name: email, PasswordHash: "x", Role: domain.RoleCMO}
	require.NoError(t, e.db.Create(u).Error)
	return u.ID
}

// seedSubordinateLedger inserts n attributed payments for the creator
// directly into the ledger, all in the current month.
func seedSubordinateLedger(t *testing.T, e *testEnv, creatorID uint, n int64) {
	t.Helper()
	month := time.Now().Format(domain.MonthLayout)
	for i := int64(1); i <= n; i++ {
		require.NoError(t, e.attrRepo.Create(&models.PaymentAttribution{
			OrderID:             fmt.Sprintf("seed-%d", i),
			PayerID:             uint(1000 + i),
			CreatorID:           &creatorID,
			EnrollmentRef:       "enr-1",
			OriginalAmountCents: 100000,
			FinalAmountCents:    100000,
			PaymentMonth:        month,
			Channel:             domain.ChannelGateway,
		}))
	}
}

func (e *testEnv) reloadProfile(t *testing.T, id uint) *models.CreatorProfile {
	t.Helper()
	p, err := e.creatorRepo.GetByID(id)
	require.NoError(t, err)
	return p
}
