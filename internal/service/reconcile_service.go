package service

import (
	"time"

	"coursepay/internal/commission"
	"coursepay/internal/domain"
	"coursepay/internal/models"
	"coursepay/internal/repository"

	"go.uber.org/zap"
)

// ReconcileService rebuilds every derived aggregate by replaying the
// attribution ledger, which is the single source of truth. Withdrawal
// rows act as a second independent ledger for the withdrawn side of the
// balance. Idempotent: two consecutive runs produce identical state.
type ReconcileService struct {
	attrRepo       *repository.AttributionRepository
	creatorRepo    *repository.CreatorRepository
	payoutRepo     *repository.PayoutRepository
	withdrawalRepo *repository.WithdrawalRepository
}

func NewReconcileService(
	attrRepo *repository.AttributionRepository,
	creatorRepo *repository.CreatorRepository,
	payoutRepo *repository.PayoutRepository,
	withdrawalRepo *repository.WithdrawalRepository,
) *ReconcileService {
	return &ReconcileService{
		attrRepo:       attrRepo,
		creatorRepo:    creatorRepo,
		payoutRepo:     payoutRepo,
		withdrawalRepo: withdrawalRepo,
	}
}

type ReconcileResult struct {
	CreatorsRebuilt int `json:"creators_rebuilt"`
	PayoutsRebuilt  int `json:"payouts_rebuilt"`
}

// RecomputeAll overwrites all creator aggregates and regenerates every
// CMO payout row from the ledger. Drifted incremental state is ignored,
// not diffed.
func (s *ReconcileService) RecomputeAll() (*ReconcileResult, error) {
	start := time.Now()
	res := &ReconcileResult{}

	if err := s.rebuildCreators(res); err != nil {
		return nil, err
	}
	if err := s.rebuildPayouts(res); err != nil {
		return nil, err
	}

	zap.L().Info("reconciliation finished",
		zap.Int("creators", res.CreatorsRebuilt),
		zap.Int("payouts", res.PayoutsRebuilt),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func (s *ReconcileService) rebuildCreators(res *ReconcileResult) error {
	profiles, err := s.creatorRepo.ListAll()
	if err != nil {
		return err
	}
	month := time.Now().Format(domain.MonthLayout)

	for _, p := range profiles {
		lifetime, err := s.attrRepo.CountByCreator(p.ID)
		if err != nil {
			return err
		}
		monthly, err := s.attrRepo.CountByCreatorMonth(p.ID, month)
		if err != nil {
			return err
		}
		earned, err := s.attrRepo.SumCommissionByCreator(p.ID)
		if err != nil {
			return err
		}
		gross, net, err := s.withdrawalRepo.SumSettled(p.ID)
		if err != nil {
			return err
		}
		if err := s.creatorRepo.OverwriteAggregates(p.ID, lifetime, monthly, month, earned-gross, net); err != nil {
			return err
		}
		res.CreatorsRebuilt++
	}
	return nil
}

// rebuildPayouts regenerates one row per (CMO, month) by replaying the
// ledger through each CMO's current subordinates in event order, so the
// year-to-date bonus crossing lands on the same payment it landed on in
// the incremental path. Admin-driven statuses are carried over by key.
func (s *ReconcileService) rebuildPayouts(res *ReconcileResult) error {
	cmoIDs, err := s.creatorRepo.ParentCMOIDs()
	if err != nil {
		return err
	}

	existing, err := s.payoutRepo.ListAll()
	if err != nil {
		return err
	}
	type payoutKey struct {
		cmo   uint
		month string
	}
	statusByKey := make(map[payoutKey]string, len(existing))
	for _, p := range existing {
		if p.Status != domain.PayoutPending {
			statusByKey[payoutKey{p.CMOUserID, p.Month}] = p.Status
		}
	}

	if err := s.payoutRepo.DeleteAll(); err != nil {
		return err
	}

	for _, cmoID := range cmoIDs {
		rows, err := s.attrRepo.ListForCMO(cmoID)
		if err != nil {
			return err
		}

		type agg struct {
			users int64
			base  int64
			bonus int64
		}
		byMonth := make(map[string]*agg)
		var months []string
		ytdByYear := make(map[string]int64)

		for _, row := range rows {
			year := row.PaymentMonth[:4]
			ytdByYear[year]++
			baseCents, bonusCents := commission.CMOCommissionCents(row.FinalAmountCents, ytdByYear[year])

			a, ok := byMonth[row.PaymentMonth]
			if !ok {
				a = &agg{}
				byMonth[row.PaymentMonth] = a
				months = append(months, row.PaymentMonth)
			}
			a.users++
			a.base += baseCents
			a.bonus += bonusCents
		}

		for _, m := range months {
			a := byMonth[m]
			status := domain.PayoutPending
			if prior, ok := statusByKey[payoutKey{cmoID, m}]; ok {
				status = prior
			}
			if err := s.payoutRepo.Create(&models.CMOPayout{
				CMOUserID:            cmoID,
				Month:                m,
				PaidUsers:            a.users,
				BaseCommissionCents:  a.base,
				BonusCommissionCents: a.bonus,
				TotalCommissionCents: a.base + a.bonus,
				Status:               status,
			}); err != nil {
				return err
			}
			res.PayoutsRebuilt++
		}
	}
	return nil
}
