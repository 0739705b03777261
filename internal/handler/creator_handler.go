package handler

import (
	"errors"
	"net/http"

	"coursepay/internal/middleware"
	"coursepay/internal/models"
	"coursepay/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreatorHandler struct {
	creatorRepo *repository.CreatorRepository
	attrRepo    *repository.AttributionRepository
	db          *gorm.DB
}

func NewCreatorHandler(db *gorm.DB, creatorRepo *repository.CreatorRepository, attrRepo *repository.AttributionRepository) *CreatorHandler {
	return &CreatorHandler{creatorRepo: creatorRepo, attrRepo: attrRepo, db: db}
}

// Dashboard returns the creator's derived aggregates and recent
// attributions.
func (h *CreatorHandler) Dashboard(c *gin.Context) {
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
	recent, err := h.attrRepo.ListByCreator(profile.ID, 20, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":             profile,
		"recent_attributions": recent,
	})
}

// ReferralCode returns the creator's code, creating the profile if this
// is a first visit.
func (h *CreatorHandler) ReferralCode(c *gin.Context) {
	userID := middleware.GetUserID(c)
	profile, err := h.creatorRepo.GetOrCreate(userID, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referral_code": profile.ReferralCode})
}

func (h *CreatorHandler) ListAttributions(c *gin.Context) {
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
	list, err := h.attrRepo.ListByCreator(profile.ID, 50, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attributions": list})
}

func (h *CreatorHandler) AddPayoutMethod(c *gin.Context) {
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
	var req struct {
		Kind          string `json:"kind" binding:"required,oneof=BANK UPI MOBILE"`
		AccountName   string `json:"account_name" binding:"required"`
		AccountNumber string `json:"account_number" binding:"required"`
		BankCode      string `json:"bank_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := &models.PayoutMethod{
		CreatorID:     profile.ID,
		Kind:          req.Kind,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		BankCode:      req.BankCode,
	}
	if err := h.db.Create(m).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *CreatorHandler) ListPayoutMethods(c *gin.Context) {
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
	var list []models.PayoutMethod
	if err := h.db.Where("creator_id = ?", profile.ID).Find(&list).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payout_methods": list})
}
