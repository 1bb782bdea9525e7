package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
)

// RemnantSweeper deletes live alerts that already have an archive copy.
type RemnantSweeper interface {
	SweepRemnants(ctx context.Context) (int, error)
}

// ArchiveReconciler periodically removes live remnants left behind when an
// archive move was interrupted between writing the copy and deleting the
// live record.
type ArchiveReconciler struct {
	sweeper  RemnantSweeper
	schedule string
	timeout  time.Duration
	logger   *logger.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
	running   sync.Mutex
}

// NewArchiveReconciler creates a reconciler. schedule accepts standard cron
// expressions and descriptors such as "@every 1m".
func NewArchiveReconciler(sweeper RemnantSweeper, schedule string, log *logger.Logger) *ArchiveReconciler {
	return &ArchiveReconciler{
		sweeper:  sweeper,
		schedule: schedule,
		timeout:  30 * time.Second,
		logger:   log.WithComponent("archive-reconciler"),
	}
}

// Start runs an initial sweep and schedules the rest.
func (r *ArchiveReconciler) Start(ctx context.Context) error {
	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", r.schedule, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler != nil {
		return fmt.Errorf("reconciler is already running")
	}

	r.scheduler = cron.New()
	if _, err := r.scheduler.AddFunc(r.schedule, func() { r.RunOnce(ctx) }); err != nil {
		r.scheduler = nil
		return fmt.Errorf("failed to schedule reconciler: %w", err)
	}

	r.RunOnce(ctx)
	r.scheduler.Start()

	r.logger.WithFields(map[string]interface{}{
		"schedule": r.schedule,
	}).Info("Archive reconciler started")
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (r *ArchiveReconciler) Stop() {
	r.mu.Lock()
	scheduler := r.scheduler
	r.scheduler = nil
	r.mu.Unlock()

	if scheduler == nil {
		return
	}
	<-scheduler.Stop().Done()
	r.logger.Info("Archive reconciler stopped")
}

// RunOnce performs a single sweep. Overlapping runs are skipped.
func (r *ArchiveReconciler) RunOnce(ctx context.Context) int {
	if !r.running.TryLock() {
		r.logger.Debug("Previous sweep still running, skipping")
		return 0
	}
	defer r.running.Unlock()

	if ctx.Err() != nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	removed, err := r.sweeper.SweepRemnants(ctx)
	if err != nil {
		r.logger.ErrorWithErr(err, "Failed to sweep archived remnants")
		return removed
	}
	if removed > 0 {
		r.logger.WithFields(map[string]interface{}{
			"removed": removed,
		}).Warn("Removed live remnants of archived alerts")
	}
	return removed
}
