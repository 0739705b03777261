// Package jobs runs the reconciliation schedule. The job is the
// self-healing path for aggregate drift, so it runs nightly regardless of
// whether anyone noticed a problem; admins can also trigger it over HTTP.
package jobs

import (
	"context"

	"coursepay/config"
	"coursepay/internal/service"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeReconcileAll = "reconcile:all"

func NewReconcileAllTask() *asynq.Task {
	return asynq.NewTask(TypeReconcileAll, nil)
}

// Runner owns the asynq worker and scheduler for settlement jobs.
type Runner struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
}

// NewRunner wires the reconcile task; returns nil when Redis is not
// configured, in which case only the HTTP trigger is available.
func NewRunner(cfg *config.RedisConfig, reconcileSvc *service.ReconcileService) *Runner {
	if cfg.Addr == "" {
		return nil
	}
	opt := asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReconcileAll, func(ctx context.Context, t *asynq.Task) error {
		res, err := reconcileSvc.RecomputeAll()
		if err != nil {
			zap.L().Error("scheduled reconciliation failed", zap.Error(err))
			return err
		}
		zap.L().Info("scheduled reconciliation done",
			zap.Int("creators", res.CreatorsRebuilt), zap.Int("payouts", res.PayoutsRebuilt))
		return nil
	})

	server := asynq.NewServer(opt, asynq.Config{Concurrency: 1})
	scheduler := asynq.NewScheduler(opt, nil)
	return &Runner{server: server, scheduler: scheduler, mux: mux}
}

// Start launches the worker and registers the nightly schedule. Safe to
// call on a nil Runner.
func (r *Runner) Start() {
	if r == nil {
		return
	}
	if _, err := r.scheduler.Register("0 3 * * *", NewReconcileAllTask()); err != nil {
		zap.L().Error("register reconcile schedule", zap.Error(err))
		return
	}
	go func() {
		if err := r.scheduler.Run(); err != nil {
			zap.L().Error("job scheduler stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := r.server.Run(r.mux); err != nil {
			zap.L().Error("job worker stopped", zap.Error(err))
		}
	}()
	zap.L().Info("reconciliation schedule active")
}

// Shutdown stops the worker and scheduler. Safe to call on a nil Runner.
func (r *Runner) Shutdown() {
	if r == nil {
		return
	}
	r.scheduler.Shutdown()
	r.server.Shutdown()
}
