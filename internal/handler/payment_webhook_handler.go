package handler

import (
	"net/http"
	"time"

	"coursepay/internal/models"
	"coursepay/internal/repository"
	"coursepay/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GatewayCallback is the confirmation payload posted by the payment
// gateway after checkout. The gateway redelivers until it sees a 2xx, so
// this endpoint must stay safe under replays.
type GatewayCallback struct {
	OrderID             string `json:"order_id"`
	Status              string `json:"status"`
	PayerID             uint   `json:"payer_id"`
	EnrollmentRef       string `json:"enrollment_ref"`
	OriginalAmountCents int64  `json:"original_amount_cents"`
	FinalAmountCents    int64  `json:"final_amount_cents"`
	ReferralCode        string `json:"referral_code"`
	DiscountCode        string `json:"discount_code"`
	PlanID              string `json:"plan_id"`
	Channel             string `json:"channel"`
	PaidAt              string `json:"paid_at"` // RFC3339, optional
}

type PaymentWebhookHandler struct {
	attrSvc   *service.AttributionService
	auditRepo *repository.AuditLogRepository
}

func NewPaymentWebhookHandler(attrSvc *service.AttributionService, auditRepo *repository.AuditLogRepository) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{attrSvc: attrSvc, auditRepo: auditRepo}
}

// Handle records a confirmed payment in the attribution ledger. A
// redelivered confirmation is answered with the stored result and no
// reprocessing.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	var payload GatewayCallback
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.Status != "COMPLETED" {
		zap.L().Info("gateway callback ignored",
			zap.String("order_id", payload.OrderID), zap.String("status", payload.Status))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var paidAt time.Time
	if payload.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, payload.PaidAt); err == nil {
			paidAt = t
		}
	}

	row, created, err := h.attrSvc.RecordPayment(service.RecordPaymentInput{
		OrderID:             payload.OrderID,
		PayerID:             payload.PayerID,
		EnrollmentRef:       payload.EnrollmentRef,
		OriginalAmountCents: payload.OriginalAmountCents,
		FinalAmountCents:    payload.FinalAmountCents,
		ReferralCode:        payload.ReferralCode,
		DiscountCode:        payload.DiscountCode,
		PlanID:              payload.PlanID,
		Channel:             payload.Channel,
		PaidAt:              paidAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if created {
		_ = h.auditRepo.Create(&models.AuditLog{
			UserID:     &row.PayerID,
			Action:     "payment_recorded",
			Resource:   "payment_attribution",
			ResourceID: row.OrderID,
			IP:         c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"received":    true,
		"duplicate":   !created,
		"attribution": row,
	})
}
