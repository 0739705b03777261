package repository

import (
	"time"

	"coursepay/internal/domain"
	"coursepay/internal/models"

	"gorm.io/gorm"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *WithdrawalRepository) WithTx(tx *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: tx}
}

// Create inserts a new PENDING request. The caller must have set
// ActiveKey to the creator id; the unique index on it rejects a second
// outstanding request with gorm.ErrDuplicatedKey.
func (r *WithdrawalRepository) Create(w *models.WithdrawalRequest) error {
	return r.db.Create(w).Error
}

func (r *WithdrawalRepository) GetByID(id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) GetByIdempotencyKey(key string) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.Where("idempotency_key = ?", key).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) HasPending(creatorID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.WithdrawalRequest{}).
		Where("creator_id = ? AND status = ?", creatorID, domain.WithdrawalPending).
		Count(&n).Error
	return n > 0, err
}

func (r *WithdrawalRepository) ListByCreator(creatorID uint, limit, offset int) ([]models.WithdrawalRequest, error) {
	var list []models.WithdrawalRequest
	err := r.db.Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *WithdrawalRepository) ListByStatus(status string, limit, offset int) ([]models.WithdrawalRequest, error) {
	var list []models.WithdrawalRequest
	err := r.db.Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// MarkApproved transitions PENDING -> APPROVED. The WHERE clause on the
// prior status is the whole concurrency story: zero rows affected means
// someone else already handled the request.
func (r *WithdrawalRepository) MarkApproved(id, reviewerID uint) (int64, error) {
	now := time.Now()
	res := r.db.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, domain.WithdrawalPending).
		UpdateColumns(map[string]interface{}{
			"status":      domain.WithdrawalApproved,
			"reviewer_id": reviewerID,
			"reviewed_at": now,
			"active_key":  nil,
		})
	return res.RowsAffected, res.Error
}

// MarkPaid transitions APPROVED -> PAID, stamping the operator's
// idempotency key so a retried call can be answered from the stored row.
func (r *WithdrawalRepository) MarkPaid(id uint, idempotencyKey *string) (int64, error) {
	now := time.Now()
	res := r.db.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, domain.WithdrawalApproved).
		UpdateColumns(map[string]interface{}{
			"status":          domain.WithdrawalPaid,
			"paid_at":         now,
			"idempotency_key": idempotencyKey,
		})
	return res.RowsAffected, res.Error
}

// MarkRejected transitions PENDING -> REJECTED. No balance reversal is
// needed: the balance is untouched while a request is PENDING.
func (r *WithdrawalRepository) MarkRejected(id, reviewerID uint, reason string) (int64, error) {
	now := time.Now()
	res := r.db.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, domain.WithdrawalPending).
		UpdateColumns(map[string]interface{}{
			"status":        domain.WithdrawalRejected,
			"reviewer_id":   reviewerID,
			"reject_reason": reason,
			"reviewed_at":   now,
			"active_key":    nil,
		})
	return res.RowsAffected, res.Error
}

// SumSettled returns, for one creator, the gross amount and net payable
// of withdrawals that have passed the approval boundary. Reconciliation
// treats these rows as a second ledger.
func (r *WithdrawalRepository) SumSettled(creatorID uint) (grossCents, netCents int64, err error) {
	type sums struct {
		Gross int64
		Net   int64
	}
	var s sums
	err = r.db.Model(&models.WithdrawalRequest{}).
		Where("creator_id = ? AND status IN ?", creatorID, []string{domain.WithdrawalApproved, domain.WithdrawalPaid}).
		Select("COALESCE(SUM(amount_cents), 0) AS gross, COALESCE(SUM(net_cents), 0) AS net").
		Scan(&s).Error
	return s.Gross, s.Net, err
}
