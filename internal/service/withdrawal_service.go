package service

import (
	"context"
	"errors"
	"fmt"

	"coursepay/internal/domain"
	"coursepay/internal/models"
	"coursepay/internal/repository"
	"coursepay/pkg/verify"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WithdrawalService drives the request/approve/pay/reject workflow
// against creator balances. Transitions are conditional updates keyed on
// the expected prior state; the approve-time balance mutation and its
// status transition commit as one unit.
type WithdrawalService struct {
	db             *gorm.DB
	withdrawalRepo *repository.WithdrawalRepository
	creatorRepo    *repository.CreatorRepository
	settingRepo    *repository.SettingRepository
	verifier       verify.CodeVerifier
	notifSvc       *NotificationService
}

func NewWithdrawalService(
	db *gorm.DB,
	withdrawalRepo *repository.WithdrawalRepository,
	creatorRepo *repository.CreatorRepository,
	settingRepo *repository.SettingRepository,
	verifier verify.CodeVerifier,
	notifSvc *NotificationService,
) *WithdrawalService {
	return &WithdrawalService{
		db:             db,
		withdrawalRepo: withdrawalRepo,
		creatorRepo:    creatorRepo,
		settingRepo:    settingRepo,
		verifier:       verifier,
		notifSvc:       notifSvc,
	}
}

// Request creates a PENDING withdrawal for the creator behind userID.
// The amount is validated against the stored available balance, never a
// client-supplied figure. At most one outstanding PENDING request per
// creator: a pre-check gives the friendly error, the unique active_key
// index closes the check-then-act race.
func (s *WithdrawalService) Request(userID, methodID uint, amountCents int64) (*models.WithdrawalRequest, error) {
	profile, err := s.creatorRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("creator profile not found")
		}
		return nil, domain.Persistence("load creator", err)
	}

	minCents := s.settingRepo.GetInt64(domain.SettingWithdrawalMinCents, domain.DefaultWithdrawalMinCents)
	if amountCents < minCents {
		return nil, domain.Validation(fmt.Sprintf("amount below platform minimum of %.2f", float64(minCents)/100))
	}
	if amountCents > profile.AvailableBalanceCents {
		return nil, domain.Validation("amount exceeds available balance")
	}

	var method models.PayoutMethod
	if err := s.db.Where("id = ? AND creator_id = ?", methodID, profile.ID).First(&method).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Validation("unknown payout method")
		}
		return nil, domain.Persistence("load payout method", err)
	}

	if pending, err := s.withdrawalRepo.HasPending(profile.ID); err != nil {
		return nil, domain.Persistence("pending check", err)
	} else if pending {
		return nil, domain.Conflict("a pending withdrawal request already exists")
	}

	feeBps := s.settingRepo.GetInt64(domain.SettingWithdrawalFeeBps, domain.DefaultWithdrawalFeeBps)
	feeCents := amountCents * feeBps / 10000

	creatorID := profile.ID
	req := &models.WithdrawalRequest{
		Reference:   fmt.Sprintf("wd-%s", uuid.New().String()),
		CreatorID:   profile.ID,
		MethodID:    method.ID,
		AmountCents: amountCents,
		FeeBps:      feeBps,
		FeeCents:    feeCents,
		NetCents:    amountCents - feeCents,
		Status:      domain.WithdrawalPending,
		ActiveKey:   &creatorID,
	}
	if err := s.withdrawalRepo.Create(req); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.Conflict("a pending withdrawal request already exists")
		}
		return nil, domain.Persistence("create withdrawal", err)
	}
	return req, nil
}

// Approve transitions PENDING -> APPROVED and deducts the balance in the
// same transaction, so the invariant "balance mutation happens iff the
// transition happened" holds even if either half fails.
func (s *WithdrawalService) Approve(ctx context.Context, requestID, reviewerID uint, code string) (*models.WithdrawalRequest, error) {
	if err := s.verifier.Verify(ctx, code); err != nil {
		return nil, domain.Authorization("verification code rejected")
	}
	req, err := s.withdrawalRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("withdrawal request not found")
		}
		return nil, domain.Persistence("load withdrawal", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		n, err := s.withdrawalRepo.WithTx(tx).MarkApproved(requestID, reviewerID)
		if err != nil {
			return domain.Persistence("approve transition", err)
		}
		if n == 0 {
			return domain.Conflict("request was already handled")
		}
		n, err = s.creatorRepo.WithTx(tx).ApplyWithdrawal(req.CreatorID, req.AmountCents, req.NetCents)
		if err != nil {
			return domain.Persistence("balance deduction", err)
		}
		if n == 0 {
			// Rolls the transition back with the transaction.
			return domain.Conflict("available balance no longer covers the amount")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	approved, err := s.withdrawalRepo.GetByID(requestID)
	if err != nil {
		return nil, domain.Persistence("reload withdrawal", err)
	}
	s.notifyTransition(approved)
	return approved, nil
}

// MarkPaid transitions APPROVED -> PAID. A retried call carrying the same
// idempotency key is answered from the stored row without reprocessing.
func (s *WithdrawalService) MarkPaid(ctx context.Context, requestID uint, code, idempotencyKey string) (*models.WithdrawalRequest, error) {
	if err := s.verifier.Verify(ctx, code); err != nil {
		return nil, domain.Authorization("verification code rejected")
	}
	if idempotencyKey != "" {
		if prior, err := s.withdrawalRepo.GetByIdempotencyKey(idempotencyKey); err == nil {
			return prior, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Persistence("idempotency lookup", err)
		}
	}

	var keyPtr *string
	if idempotencyKey != "" {
		keyPtr = &idempotencyKey
	}
	n, err := s.withdrawalRepo.MarkPaid(requestID, keyPtr)
	if err != nil {
		return nil, domain.Persistence("paid transition", err)
	}
	if n == 0 {
		// A concurrent retry with the same key may have won the race.
		if idempotencyKey != "" {
			if prior, lookupErr := s.withdrawalRepo.GetByIdempotencyKey(idempotencyKey); lookupErr == nil {
				return prior, nil
			}
		}
		return nil, domain.Conflict("request is not in the approved state")
	}

	paid, err := s.withdrawalRepo.GetByID(requestID)
	if err != nil {
		return nil, domain.Persistence("reload withdrawal", err)
	}
	s.notifyTransition(paid)
	return paid, nil
}

// Reject transitions PENDING -> REJECTED. The balance was never touched
// at the pending stage, so there is nothing to reverse.
func (s *WithdrawalService) Reject(ctx context.Context, requestID, reviewerID uint, code, reason string) (*models.WithdrawalRequest, error) {
	if err := s.verifier.Verify(ctx, code); err != nil {
		return nil, domain.Authorization("verification code rejected")
	}
	if reason == "" {
		return nil, domain.Validation("a rejection reason is required")
	}
	n, err := s.withdrawalRepo.MarkRejected(requestID, reviewerID, reason)
	if err != nil {
		return nil, domain.Persistence("reject transition", err)
	}
	if n == 0 {
		return nil, domain.Conflict("request was already handled")
	}

	rejected, err := s.withdrawalRepo.GetByID(requestID)
	if err != nil {
		return nil, domain.Persistence("reload withdrawal", err)
	}
	s.notifyTransition(rejected)
	return rejected, nil
}

func (s *WithdrawalService) notifyTransition(req *models.WithdrawalRequest) {
	profile, err := s.creatorRepo.GetByID(req.CreatorID)
	if err != nil {
		zap.L().Warn("withdrawal notify: creator lookup failed", zap.Uint("creator_id", req.CreatorID), zap.Error(err))
		return
	}
	switch req.Status {
	case domain.WithdrawalApproved:
		err = s.notifSvc.NotifyWithdrawalApproved(profile.UserID, req.Reference, req.NetCents)
	case domain.WithdrawalPaid:
		err = s.notifSvc.NotifyWithdrawalPaid(profile.UserID, req.Reference, req.NetCents)
	case domain.WithdrawalRejected:
		err = s.notifSvc.NotifyWithdrawalRejected(profile.UserID, req.Reference, req.RejectReason)
	}
	if err != nil {
		zap.L().Warn("withdrawal notification failed", zap.String("reference", req.Reference), zap.Error(err))
	}
	s.notifSvc.AlertOps("withdrawal %s -> %s (creator %d, %.2f)",
		req.Reference, req.Status, req.CreatorID, float64(req.AmountCents)/100)
}
