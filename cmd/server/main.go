package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursepay/config"
	"coursepay/internal/database"
	"coursepay/internal/jobs"
	"coursepay/internal/repository"
	"coursepay/internal/router"
	"coursepay/internal/service"
	"coursepay/pkg/alert"
	"coursepay/pkg/verify"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Server.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		zap.L().Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		zap.L().Fatal("migrate", zap.Error(err))
	}
	database.SeedAdmin(db, cfg)

	verifier := newVerifier(cfg)
	alerter := alert.NewTelegram(cfg.Alert.TelegramToken, cfg.Alert.TelegramChatID)

	reconcileSvc := service.NewReconcileService(
		repository.NewAttributionRepository(db),
		repository.NewCreatorRepository(db),
		repository.NewPayoutRepository(db),
		repository.NewWithdrawalRepository(db),
	)
	runner := jobs.NewRunner(&cfg.Redis, reconcileSvc)
	runner.Start()

	engine := router.Setup(cfg, db, verifier, alerter)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		zap.L().Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("shutting down")
	runner.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Fatal("server shutdown", zap.Error(err))
	}
	zap.L().Info("server stopped")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newVerifier(cfg *config.Config) verify.CodeVerifier {
	if cfg.Verify.Provider == "vault" {
		v, err := verify.NewVaultVerifier(
			cfg.Verify.VaultAddr,
			cfg.Verify.VaultToken,
			cfg.Verify.VaultMount,
			cfg.Verify.VaultPath,
			cfg.Verify.VaultField,
		)
		if err != nil {
			zap.L().Fatal("vault verifier", zap.Error(err))
		}
		return v
	}
	if cfg.Verify.StaticCode == "" {
		zap.L().Warn("no verification code configured; withdrawal approvals will be rejected")
	}
	return verify.NewStaticVerifier(cfg.Verify.StaticCode)
}
