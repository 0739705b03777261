package router

import (
	"time"

	"coursepay/config"
	"coursepay/internal/domain"
	"coursepay/internal/handler"
	"coursepay/internal/middleware"
	"coursepay/internal/repository"
	"coursepay/internal/service"
	"coursepay/pkg/alert"
	"coursepay/pkg/verify"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, verifier verify.CodeVerifier, alerter *alert.Telegram) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	creatorRepo := repository.NewCreatorRepository(db)
	attrRepo := repository.NewAttributionRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, creatorRepo)
	notifSvc := service.NewNotificationService(notificationRepo, alerter)
	attrSvc := service.NewAttributionService(attrRepo, creatorRepo, discountRepo, payoutRepo, notifSvc)
	withdrawalSvc := service.NewWithdrawalService(db, withdrawalRepo, creatorRepo, settingRepo, verifier, notifSvc)
	reconcileSvc := service.NewReconcileService(attrRepo, creatorRepo, payoutRepo, withdrawalRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	webhookHandler := handler.NewPaymentWebhookHandler(attrSvc, auditRepo)
	creatorHandler := handler.NewCreatorHandler(db, creatorRepo, attrRepo)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc, withdrawalRepo, creatorRepo)
	adminHandler := handler.NewAdminHandler(withdrawalSvc, reconcileSvc, withdrawalRepo, payoutRepo, auditRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		api.POST("/webhooks/payment", webhookHandler.Handle)

		me := api.Group("/me")
		me.Use(authMw, middleware.RequireRole(domain.RoleCreator, domain.RoleCMO))
		{
			me.GET("/dashboard", creatorHandler.Dashboard)
			me.GET("/referral-code", creatorHandler.ReferralCode)
			me.GET("/attributions", creatorHandler.ListAttributions)
			me.GET("/payout-methods", creatorHandler.ListPayoutMethods)
			me.POST("/payout-methods", creatorHandler.AddPayoutMethod)
			me.POST("/withdrawals", withdrawalHandler.Create)
			me.GET("/withdrawals", withdrawalHandler.ListMine)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/pay", adminHandler.PayWithdrawal)
			admin.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)
			admin.GET("/payouts", adminHandler.ListPayouts)
			admin.POST("/payouts/:id/eligible", adminHandler.MarkPayoutEligible)
			admin.POST("/payouts/:id/pay", adminHandler.MarkPayoutPaid)
			admin.POST("/reconcile", adminHandler.Reconcile)
		}
	}

	return r
}
