package service

import (
	"errors"
	"time"

	"coursepay/internal/commission"
	"coursepay/internal/domain"
	"coursepay/internal/models"
	"coursepay/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttributionService owns the payment attribution ledger. The ledger is
// event-sourced: the insert in RecordPayment is the single durable fact,
// and the creator counters, balances and CMO roll-ups it feeds are
// materialized views that the reconciliation service can rebuild from the
// ledger at any time.
type AttributionService struct {
	attrRepo     *repository.AttributionRepository
	creatorRepo  *repository.CreatorRepository
	discountRepo *repository.DiscountRepository
	payoutRepo   *repository.PayoutRepository
	notifSvc     *NotificationService
}

func NewAttributionService(
	attrRepo *repository.AttributionRepository,
	creatorRepo *repository.CreatorRepository,
	discountRepo *repository.DiscountRepository,
	payoutRepo *repository.PayoutRepository,
	notifSvc *NotificationService,
) *AttributionService {
	return &AttributionService{
		attrRepo:     attrRepo,
		creatorRepo:  creatorRepo,
		discountRepo: discountRepo,
		payoutRepo:   payoutRepo,
		notifSvc:     notifSvc,
	}
}

type RecordPaymentInput struct {
	OrderID             string
	PayerID             uint
	EnrollmentRef       string
	OriginalAmountCents int64
	FinalAmountCents    int64
	ReferralCode        string
	DiscountCode        string
	PlanID              string
	Channel             string
	PaidAt              time.Time
}

// RecordPayment appends a confirmed payment to the ledger and fans the
// event out into the derived aggregates. Idempotent on OrderID: a
// redelivered confirmation returns the stored row and performs no further
// side effects. The bool result reports whether this call created the
// row.
func (s *AttributionService) RecordPayment(in RecordPaymentInput) (*models.PaymentAttribution, bool, error) {
	if in.OrderID == "" {
		return nil, false, domain.Validation("order id is required")
	}
	if in.FinalAmountCents <= 0 || in.OriginalAmountCents <= 0 {
		return nil, false, domain.Validation("amounts must be positive")
	}
	if in.FinalAmountCents > in.OriginalAmountCents {
		return nil, false, domain.Validation("final amount exceeds original amount")
	}

	// Fast path for redeliveries. The unique index below remains the
	// authoritative guard; this only saves the failed insert.
	if existing, err := s.attrRepo.GetByOrderID(in.OrderID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, domain.Persistence("lookup order", err)
	}

	creator, discount := s.resolveReferrer(in.ReferralCode, in.DiscountCode)

	var rateBps, commissionCents int64
	if creator != nil {
		// Rate comes from the stored lifetime count at event time, so a
		// tier crossing applies from the next payment onward.
		rateBps, commissionCents = commission.CreatorCommissionCents(in.FinalAmountCents, creator.LifetimePaidUsers)
	}

	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	month := paidAt.Format(domain.MonthLayout)
	channel := in.Channel
	if channel == "" {
		channel = domain.ChannelGateway
	}

	row := &models.PaymentAttribution{
		OrderID:             in.OrderID,
		PayerID:             in.PayerID,
		EnrollmentRef:       in.EnrollmentRef,
		OriginalAmountCents: in.OriginalAmountCents,
		DiscountCents:       in.OriginalAmountCents - in.FinalAmountCents,
		FinalAmountCents:    in.FinalAmountCents,
		CommissionRateBps:   rateBps,
		CommissionCents:     commissionCents,
		PaymentMonth:        month,
		PlanID:              in.PlanID,
		Channel:             channel,
	}
	if creator != nil {
		row.CreatorID = &creator.ID
	}

	// Durability boundary. Only a successful insert licenses any of the
	// aggregate mutations below.
	if err := s.attrRepo.Create(row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, lookupErr := s.attrRepo.GetByOrderID(in.OrderID)
			if lookupErr != nil {
				return nil, false, domain.Persistence("lookup duplicate order", lookupErr)
			}
			return existing, false, nil
		}
		return nil, false, domain.Persistence("insert attribution", err)
	}

	// Aggregate fan-out. Failures here leave the ledger correct and an
	// aggregate stale; they are logged and left for reconciliation, never
	// rolled back into the ledger.
	if creator != nil {
		s.applyCreatorEffects(row, creator)
	}
	if discount != nil {
		if err := s.discountRepo.IncrementUsage(discount.ID); err != nil {
			zap.L().Error("discount usage increment failed",
				zap.String("order_id", in.OrderID), zap.Uint("discount_id", discount.ID), zap.Error(err))
		}
	}
	return row, true, nil
}

// resolveReferrer applies the hint priority: a matching referral code
// wins over a matching discount code; no match means a direct sale. The
// discount row is returned whenever the code is valid so its usage
// counter is bumped even when attribution came from the referral code.
func (s *AttributionService) resolveReferrer(referralCode, discountCode string) (*models.CreatorProfile, *models.DiscountCode) {
	var discount *models.DiscountCode
	if discountCode != "" {
		if d, err := s.discountRepo.GetActiveByCode(discountCode); err == nil {
			discount = d
		}
	}
	if referralCode != "" {
		if p, err := s.creatorRepo.GetByReferralCode(referralCode); err == nil {
			return p, discount
		}
	}
	if discount != nil && discount.CreatorID != nil {
		if p, err := s.creatorRepo.GetByID(*discount.CreatorID); err == nil {
			return p, discount
		}
	}
	return nil, discount
}

func (s *AttributionService) applyCreatorEffects(row *models.PaymentAttribution, creator *models.CreatorProfile) {
	log := zap.L().With(zap.String("order_id", row.OrderID), zap.Uint("creator_id", creator.ID))

	if row.PaymentMonth == time.Now().Format(domain.MonthLayout) {
		if err := s.creatorRepo.IncrementPaidCounters(creator.ID, row.PaymentMonth); err != nil {
			log.Error("paid counter increment failed", zap.Error(err))
		}
	} else if err := s.creatorRepo.IncrementLifetime(creator.ID); err != nil {
		log.Error("lifetime counter increment failed", zap.Error(err))
	}
	if row.CommissionCents > 0 {
		if err := s.creatorRepo.CreditBalance(creator.ID, row.CommissionCents); err != nil {
			log.Error("balance credit failed", zap.Error(err))
		}
	}
	if err := s.attrRepo.EnsureUserAttribution(row.PayerID, creator.ID); err != nil {
		log.Error("user attribution upsert failed", zap.Error(err))
	}

	if creator.ParentCMOID != nil {
		s.rollUpToCMO(row, *creator.ParentCMOID)
	}

	if err := s.notifSvc.NotifyCommissionEarned(creator.UserID, row.CommissionCents, row.OrderID); err != nil {
		log.Warn("commission notification failed", zap.Error(err))
	}
	s.notifSvc.AlertOps("commission %.2f credited to creator %d (order %s)",
		float64(row.CommissionCents)/100, creator.ID, row.OrderID)
}

// rollUpToCMO folds the event into the supervising CMO's monthly payout
// row. The YTD subordinate count is taken from the ledger after the
// insert, so the crossing payment itself earns the bonus.
func (s *AttributionService) rollUpToCMO(row *models.PaymentAttribution, cmoUserID uint) {
	log := zap.L().With(zap.String("order_id", row.OrderID), zap.Uint("cmo_user_id", cmoUserID))

	yearPrefix := row.PaymentMonth[:4] + "-"
	ytd, err := s.attrRepo.CountForCMOYear(cmoUserID, yearPrefix)
	if err != nil {
		log.Error("cmo ytd count failed", zap.Error(err))
		return
	}
	baseCents, bonusCents := commission.CMOCommissionCents(row.FinalAmountCents, ytd)

	payout, err := s.payoutRepo.GetOrCreate(cmoUserID, row.PaymentMonth)
	if err != nil {
		log.Error("cmo payout row lookup failed", zap.Error(err))
		return
	}
	if err := s.payoutRepo.AddEvent(payout.ID, baseCents, bonusCents); err != nil {
		log.Error("cmo payout fold failed", zap.Error(err))
	}
}
