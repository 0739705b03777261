package handler

import (
	"errors"
	"net/http"

	"coursepay/internal/middleware"
	"coursepay/internal/repository"
	"coursepay/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type WithdrawalHandler struct {
	withdrawalSvc  *service.WithdrawalService
	withdrawalRepo *repository.WithdrawalRepository
	creatorRepo    *repository.CreatorRepository
}

func NewWithdrawalHandler(
	withdrawalSvc *service.WithdrawalService,
	withdrawalRepo *repository.WithdrawalRepository,
	creatorRepo *repository.CreatorRepository,
) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalSvc:  withdrawalSvc,
		withdrawalRepo: withdrawalRepo,
		creatorRepo:    creatorRepo,
	}
}

// Create opens a withdrawal request against the creator's stored
// available balance.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		MethodID    uint  `json:"method_id" binding:"required"`
		AmountCents int64 `json:"amount_cents" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.withdrawalSvc.Request(userID, req.MethodID, req.AmountCents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	profile, err := h.creatorRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "creator profile not found"})
			return
		}
		respondError(c, err)
		return
	}
	list, err := h.withdrawalRepo.ListByCreator(profile.ID, 50, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}
