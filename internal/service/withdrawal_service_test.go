package service

import (
	"context"
	"testing"

	"coursepay/internal/domain"
	"coursepay/internal/models"
	"coursepay/pkg/verify"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testVerifyCode = "314159"

func newWithdrawalEnv(t *testing.T) (*testEnv, *WithdrawalService) {
	t.Helper()
	env := newTestEnv(t)
	svc := NewWithdrawalService(env.db, env.withdrawalRepo, env.creatorRepo, env.settingRepo,
		verify.NewStaticVerifier(testVerifyCode), env.notifSvc)
	return env, svc
}

// fundedCreator provisions a creator with a balance and a payout method.
func fundedCreator(t *testing.T, env *testEnv, balanceCents int64) (*models.CreatorProfile, uint) {
	t.Helper()
	p := env.newCreator(t, "creator@example.com", nil)
	require.NoError(t, env.db.Model(p).UpdateColumn("available_balance_cents", balanceCents).Error)
	method := &models.PayoutMethod{CreatorID: p.ID, Kind: "BANK", AccountName: "Creator", AccountNumber: "123"}
	require.NoError(t, env.db.Create(method).Error)
	return env.reloadProfile(t, p.ID), method.ID
}

func TestWithdrawalRequestValidation(t *testing.T) {
	env, svc := newWithdrawalEnv(t)
	p, methodID := fundedCreator(t, env, 100000)

	_, err := svc.Request(p.UserID, methodID, domain.DefaultWithdrawalMinCents-1)
	require.True(t, domain.IsValidation(err))

	_, err = svc.Request(p.UserID, methodID, 100001)
	require.True(t, domain.IsValidation(err))

	_, err = svc.Request(p.UserID, methodID+1, 100000)
	require.True(t, domain.IsValidation(err))
}

func TestWithdrawalRequestFee(t *testing.T) {
	env, svc := newWithdrawalEnv(t)
	p, methodID := fundedCreator(t, env, 200000)

	req, err := svc.Request(p.UserID, methodID, 100000)
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalPending, req.Status)
	require.Equal(t, int64(domain.DefaultWithdrawalFeeBps), req.FeeBps)
	require.Equal(t, int64(2000), req.FeeCents)
	require.Equal(t, int64(98000), req.NetCents)

	// Requesting does not touch the balance; only approval deducts.
	require.Equal(t, int64(200000), env.reloadProfile(t, p.ID).AvailableBalanceCents)
}

func TestWithdrawalOnePendingPerCreator(t *testing.T) {
	env, svc := newWithdrawalEnv(t)
	p, methodID := fundedCreator(t, env, 500000)

	_, err := svc.Request(p.UserID, methodID, 100000)
	require.NoError(t, err)

	_, err = svc.Request(p.UserID, methodID, 100000)
	require.True(t, domain.IsConflict(err))

	// Even bypassing the service pre-check, the unique active_key index
	// rejects a second pending row.
	creatorID := p.ID
	err = env.withdrawalRepo.Create(&models.WithdrawalRequest{
		Reference: "wd-race", CreatorID: p.ID, MethodID: methodID,
		AmountCents: 100000, NetCents: 98000,
		Status: domain.WithdrawalPending, ActiveKey: &creatorID,
	})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestWithdrawalApprove(t *testing.T) {
	env, svc := newWithdrawalEnv(t)
	p, methodID := fundedCreator(t, env, 200000)
	req, err := svc.Request(p.UserID, methodID, 100000)
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), req.ID, 99, testVerifyCode)
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalApproved, approved.Status)
	require.Nil(t, approved.ActiveKey)
	require.NotNil(t, approved.ReviewedAt)

	// Gross leaves the balance, net lands in the withdrawn total.
	after := env.reloadProfile(t, p.ID)
	require.Equal(t, int64(100000), after.AvailableBalanceCents)
	require.Equal(t, req.NetCents, after.TotalWithdrawnCents)

	// With the pending slot released a new request is allowed.
	_, err = svc.Request(p.UserID, methodID, 100000)
	require.NoError(t, err)
}

func TestWithdrawalApproveNonPending(t *testing.T) {
	env, svc := newWithdrawalEnv(t)
	p, methodID := fundedCreator(t, env, 200000)
	req, err := svc.Request(p.UserID, methodID, 100000)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), req.ID, 99, testVerifyCode)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), req.ID, 99, testVerifyCode)
	require.True(t, domain.IsConflict(err))

	// No double deduction.
	require.Equal(t, int64(100000), env.reloadProfile(t, p.ID).AvailableBalanceCents)
}

func TestWithdrawalApproveInsufficientBalanceRollsBack(t *testing.T) {
	env, svc := newWithdrawalEnv(t)
	p, methodID := fundedCreator(t, env, 200000)
	req, err := svc.Request(p.UserID, methodID, 150000)
	require.NoError(t, err)

	// Balance drained between request and review.
	require.NoError(t, env.db.Model(&models.CreatorProfile{}).Where("id = ?", p.ID).
		UpdateColumn("available_balance_cents", 50000).Error)

	_, err = svc.Approve(context.Background(), req.ID, 99, testVerifyCode)
	require.True(t, domain.IsConflict(err))

	// The status transition rolled back with the failed deduction.
	reloaded, err := env.withdrawalRepo.GetByID(req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalPending, reloaded.Status)
	require.Equal(t, int64(50000), env.reloadProfile(t, p.ID).AvailableBalanceCents)
}

func TestWithdrawalVerificationCode(t *testing.T) {
	env, svc := newWithdrawalEnv(t)
	p, methodID := fundedCreator(t, env, 200000)
	req, err := svc.Request(p.UserID, methodID, 100000)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), req.ID, 99, "wrong")
	require.True(t, domain.IsAuthorization(err))
	_, err = svc.Approve(context.Background(), req.ID, 99, "")
	require.True(t, domain.IsAuthorization(err))

	reloaded, err := env.withdrawalRepo.GetByID(req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalPending, reloaded.Status)
}

func TestWithdrawalMarkPaid(t *testing.T) {
	env, svc := newWithdrawalEnv(t)
	p, methodID := fundedCreator(t, env, 200000)
	req, err := svc.Request(p.UserID, methodID, 100000)
	require.NoError(t, err)

	// Not yet approved.
	_, err = svc.MarkPaid(context.Background(), req.ID, testVerifyCode, "settle-1")
	require.True(t, domain.IsConflict(err))

	_, err = svc.Approve(context.Background(), req.ID, 99, testVerifyCode)
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), req.ID, testVerifyCode, "settle-1")
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// A retry with the same idempotency key replays the stored outcome.
	replay, err := svc.MarkPaid(context.Background(), req.ID, testVerifyCode, "settle-1")
	require.NoError(t, err)
	require.Equal(t, paid.ID, replay.ID)
	require.Equal(t, domain.WithdrawalPaid, replay.Status)

	// Marking paid never touches the balance again.
	require.Equal(t, int64(100000), env.reloadProfile(t, p.ID).AvailableBalanceCents)
}

func TestWithdrawalReject(t *testing.T) {
	env, svc := newWithdrawalEnv(t)
	p, methodID := fundedCreator(t, env, 200000)
	req, err := svc.Request(p.UserID, methodID, 100000)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), req.ID, 99, testVerifyCode, "")
	require.True(t, domain.IsValidation(err))

	rejected, err := svc.Reject(context.Background(), req.ID, 99, testVerifyCode, "mismatched account name")
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalRejected, rejected.Status)
	require.Equal(t, "mismatched account name", rejected.RejectReason)
	require.Nil(t, rejected.ActiveKey)

	// Rejection leaves the balance untouched and frees the pending slot.
	require.Equal(t, int64(200000), env.reloadProfile(t, p.ID).AvailableBalanceCents)
	_, err = svc.Request(p.UserID, methodID, 100000)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), req.ID, 99, testVerifyCode, "again")
	require.True(t, domain.IsConflict(err))
}

func TestWithdrawalRequestUnknownCreator(t *testing.T) {
	env, svc := newWithdrawalEnv(t)
	_ = env
	_, err := svc.Request(12345, 1, 100000)
	require.True(t, domain.IsNotFound(err))
}
