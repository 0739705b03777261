package service

import (
	"testing"

	"coursepay/internal/commission"
	"coursepay/internal/domain"
	"coursepay/internal/models"

	"github.com/stretchr/testify/require"
)

func paymentInput(orderID string, payerID uint, referralCode string) RecordPaymentInput {
	return RecordPaymentInput{
		OrderID:             orderID,
		PayerID:             payerID,
		EnrollmentRef:       "enr-1",
		OriginalAmountCents: 1000000,
		FinalAmountCents:    900000,
		ReferralCode:        referralCode,
		PlanID:              "plan-basic",
	}
}

func TestRecordPaymentWorkedExample(t *testing.T) {
	env := newTestEnv(t)
	creator := env.newCreator(t, "creator@example.com", nil)
	require.NoError(t, env.db.Model(creator).UpdateColumn("lifetime_paid_users", 10).Error)

	row, created, err := env.attrSvc.RecordPayment(paymentInput("ord-1", 42, creator.ReferralCode))
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, int64(800), row.CommissionRateBps)
	require.Equal(t, int64(72000), row.CommissionCents)
	require.Equal(t, int64(100000), row.DiscountCents)

	p := env.reloadProfile(t, creator.ID)
	require.Equal(t, int64(11), p.LifetimePaidUsers)
	require.Equal(t, int64(1), p.MonthlyPaidUsers)
	require.Equal(t, int64(72000), p.AvailableBalanceCents)
}

func TestRecordPaymentIdempotent(t *testing.T) {
	env := newTestEnv(t)
	creator := env.newCreator(t, "creator@example.com", nil)

	first, created, err := env.attrSvc.RecordPayment(paymentInput("ord-dup", 42, creator.ReferralCode))
	require.NoError(t, err)
	require.True(t, created)

	// Redelivery with identical arguments: same row back, no further
	// side effects.
	second, created, err := env.attrSvc.RecordPayment(paymentInput("ord-dup", 42, creator.ReferralCode))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, env.db.Model(&models.PaymentAttribution{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	p := env.reloadProfile(t, creator.ID)
	require.Equal(t, int64(1), p.LifetimePaidUsers)
	require.Equal(t, first.CommissionCents, p.AvailableBalanceCents)
}

func TestRecordPaymentDirectSale(t *testing.T) {
	env := newTestEnv(t)

	row, created, err := env.attrSvc.RecordPayment(paymentInput("ord-direct", 42, ""))
	require.NoError(t, err)
	require.True(t, created)
	require.Nil(t, row.CreatorID)
	require.Zero(t, row.CommissionCents)
}

func TestRecordPaymentValidation(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.attrSvc.RecordPayment(RecordPaymentInput{OrderID: "", FinalAmountCents: 1, OriginalAmountCents: 1})
	require.True(t, domain.IsValidation(err))

	in := paymentInput("ord-bad", 42, "")
	in.FinalAmountCents = in.OriginalAmountCents + 1
	_, _, err = env.attrSvc.RecordPayment(in)
	require.True(t, domain.IsValidation(err))
}

func TestRecordPaymentTierCrossing(t *testing.T) {
	env := newTestEnv(t)
	creator := env.newCreator(t, "creator@example.com", nil)
	require.NoError(t, env.db.Model(creator).UpdateColumn("lifetime_paid_users", 499).Error)

	// Stored count 499: still the base rate on this event.
	row, _, err := env.attrSvc.RecordPayment(paymentInput("ord-499", 1, creator.ReferralCode))
	require.NoError(t, err)
	require.Equal(t, commission.CreatorBaseRateBps, row.CommissionRateBps)

	// Count is now 500: the bonus rate applies from here on, permanently.
	row, _, err = env.attrSvc.RecordPayment(paymentInput("ord-500", 2, creator.ReferralCode))
	require.NoError(t, err)
	require.Equal(t, commission.CreatorBonusRateBps, row.CommissionRateBps)
}

func TestRecordPaymentFirstAttributionWins(t *testing.T) {
	env := newTestEnv(t)
	first := env.newCreator(t, "first@example.com", nil)
	second := env.newCreator(t, "second@example.com", nil)

	_, _, err := env.attrSvc.RecordPayment(paymentInput("ord-a", 7, first.ReferralCode))
	require.NoError(t, err)

	// A later payment by the same user carrying a different creator's
	// code keeps the original permanent mapping, silently.
	_, _, err = env.attrSvc.RecordPayment(paymentInput("ord-b", 7, second.ReferralCode))
	require.NoError(t, err)

	ua, err := env.attrRepo.GetUserAttribution(7)
	require.NoError(t, err)
	require.Equal(t, first.ID, ua.CreatorID)
}

func TestRecordPaymentDiscountFallback(t *testing.T) {
	env := newTestEnv(t)
	creator := env.newCreator(t, "creator@example.com", nil)
	creatorID := creator.ID
	disc := &models.DiscountCode{Code: "SAVE10", CreatorID: &creatorID, PercentOff: 10, IsActive: true}
	require.NoError(t, env.discountRepo.Create(disc))

	in := paymentInput("ord-disc", 9, "")
	in.DiscountCode = "SAVE10"
	row, _, err := env.attrSvc.RecordPayment(in)
	require.NoError(t, err)
	require.NotNil(t, row.CreatorID)
	require.Equal(t, creator.ID, *row.CreatorID)

	var reloaded models.DiscountCode
	require.NoError(t, env.db.First(&reloaded, disc.ID).Error)
	require.Equal(t, int64(1), reloaded.UsageCount)
}

func TestRecordPaymentCMORollUp(t *testing.T) {
	env := newTestEnv(t)
	cmoID := env.newCMOUser(t, "cmo@example.com")
	creator := env.newCreator(t, "creator@example.com", &cmoID)

	row, _, err := env.attrSvc.RecordPayment(paymentInput("ord-cmo", 11, creator.ReferralCode))
	require.NoError(t, err)

	payouts, err := env.payoutRepo.ListByMonth(row.PaymentMonth)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	require.Equal(t, cmoID, payouts[0].CMOUserID)
	require.Equal(t, int64(1), payouts[0].PaidUsers)
	require.Equal(t, commission.Apply(row.FinalAmountCents, commission.CMOBaseRateBps), payouts[0].BaseCommissionCents)
	require.Zero(t, payouts[0].BonusCommissionCents)
	require.Equal(t, payouts[0].BaseCommissionCents, payouts[0].TotalCommissionCents)
}

func TestRecordPaymentCMOBonusCrossing(t *testing.T) {
	env := newTestEnv(t)
	cmoID := env.newCMOUser(t, "cmo@example.com")
	creator := env.newCreator(t, "creator@example.com", &cmoID)

	// Seed the ledger so the next event is the 280th subordinate payment
	// of the calendar year.
	seedSubordinateLedger(t, env, creator.ID, commission.CMOBonusYTDThreshold-1)

	row, _, err := env.attrSvc.RecordPayment(paymentInput("ord-crossing", 5000, creator.ReferralCode))
	require.NoError(t, err)

	payouts, err := env.payoutRepo.ListByMonth(row.PaymentMonth)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	// The crossing payment earns the 5% bonus on its whole amount.
	require.Equal(t, commission.Apply(row.FinalAmountCents, commission.CMOBonusRateBps), payouts[0].BonusCommissionCents)
}
