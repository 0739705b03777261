package handler

import (
	"net/http"
	"strconv"
	"time"

	"coursepay/internal/domain"
	"coursepay/internal/middleware"
	"coursepay/internal/models"
	"coursepay/internal/repository"
	"coursepay/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the privileged settlement operations: withdrawal
// transitions, CMO payout listings and transitions, and the manual
// reconciliation trigger.
type AdminHandler struct {
	withdrawalSvc  *service.WithdrawalService
	reconcileSvc   *service.ReconcileService
	withdrawalRepo *repository.WithdrawalRepository
	payoutRepo     *repository.PayoutRepository
	auditRepo      *repository.AuditLogRepository
}

func NewAdminHandler(
	withdrawalSvc *service.WithdrawalService,
	reconcileSvc *service.ReconcileService,
	withdrawalRepo *repository.WithdrawalRepository,
	payoutRepo *repository.PayoutRepository,
	auditRepo *repository.AuditLogRepository,
) *AdminHandler {
	return &AdminHandler{
		withdrawalSvc:  withdrawalSvc,
		reconcileSvc:   reconcileSvc,
		withdrawalRepo: withdrawalRepo,
		payoutRepo:     payoutRepo,
		auditRepo:      auditRepo,
	}
}

func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	status := c.DefaultQuery("status", domain.WithdrawalPending)
	list, err := h.withdrawalRepo.ListByStatus(status, 100, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		VerificationCode string `json:"verification_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reviewerID := middleware.GetUserID(c)
	w, err := h.withdrawalSvc.Approve(c.Request.Context(), id, reviewerID, req.VerificationCode)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, reviewerID, "withdrawal_approved", w.Reference)
	c.JSON(http.StatusOK, w)
}

func (h *AdminHandler) PayWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		VerificationCode string `json:"verification_code" binding:"required"`
		IdempotencyKey   string `json:"idempotency_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reviewerID := middleware.GetUserID(c)
	w, err := h.withdrawalSvc.MarkPaid(c.Request.Context(), id, req.VerificationCode, req.IdempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, reviewerID, "withdrawal_paid", w.Reference)
	c.JSON(http.StatusOK, w)
}

func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		VerificationCode string `json:"verification_code" binding:"required"`
		Reason           string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reviewerID := middleware.GetUserID(c)
	w, err := h.withdrawalSvc.Reject(c.Request.Context(), id, reviewerID, req.VerificationCode, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, reviewerID, "withdrawal_rejected", w.Reference)
	c.JSON(http.StatusOK, w)
}

func (h *AdminHandler) ListPayouts(c *gin.Context) {
	month := c.DefaultQuery("month", time.Now().Format(domain.MonthLayout))
	list, err := h.payoutRepo.ListByMonth(month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": month, "payouts": list})
}

func (h *AdminHandler) MarkPayoutEligible(c *gin.Context) {
	h.transitionPayout(c, domain.PayoutPending, domain.PayoutEligible, "payout_marked_eligible")
}

func (h *AdminHandler) MarkPayoutPaid(c *gin.Context) {
	h.transitionPayout(c, domain.PayoutEligible, domain.PayoutPaid, "payout_marked_paid")
}

func (h *AdminHandler) transitionPayout(c *gin.Context, from, to, action string) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.payoutRepo.Transition(id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	if n == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "payout is not in the expected state"})
		return
	}
	p, err := h.payoutRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, middleware.GetUserID(c), action, p.Month)
	c.JSON(http.StatusOK, p)
}

// Reconcile triggers a full rebuild of all derived aggregates from the
// ledger.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	res, err := h.reconcileSvc.RecomputeAll()
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, middleware.GetUserID(c), "reconciliation_run", "")
	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) audit(c *gin.Context, userID uint, action, resourceID string) {
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "settlement",
		ResourceID: resourceID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
