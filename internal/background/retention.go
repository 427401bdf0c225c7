// Package background runs the ledger retention sweep. The attempt ledger is
// append-only from the engine's point of view; rows older than the retention
// horizon carry no scoring signal and are pruned here.
package background

import (
	"context"
	"log/slog"
	"time"
)

// AttemptPruner deletes ledger rows older than the cutoff.
type AttemptPruner interface {
	PruneOlderThan(ctx context.Context, cutoff int64) (int64, error)
}

// RetentionManager periodically prunes old attempts from the ledger.
type RetentionManager struct {
	ledger    AttemptPruner
	logger    *slog.Logger
	retention time.Duration
	interval  time.Duration
	stopCh    chan struct{}
}

// NewRetentionManager creates a retention manager pruning rows older than
// retention, checking every interval.
func NewRetentionManager(
	ledger AttemptPruner,
	logger *slog.Logger,
	retention time.Duration,
	interval time.Duration,
) *RetentionManager {
	return &RetentionManager{
		ledger:    ledger,
		logger:    logger,
		retention: retention,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic retention sweep
func (rm *RetentionManager) Start(ctx context.Context) {
	ticker := time.NewTicker(rm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	rm.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			rm.runSweep(ctx)
		case <-rm.stopCh:
			rm.logger.Info("retention manager stopped")
			return
		case <-ctx.Done():
			rm.logger.Info("retention manager context cancelled")
			return
		}
	}
}

func (rm *RetentionManager) runSweep(ctx context.Context) {
	cutoff := time.Now().Add(-rm.retention).Unix()

	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := rm.ledger.PruneOlderThan(sweepCtx, cutoff)
	if err != nil {
		rm.logger.Error("ledger retention sweep failed", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		rm.logger.Info("ledger retention sweep completed",
			slog.Int64("rows_deleted", rowsDeleted),
			slog.Int64("cutoff", cutoff))
	}
}

// Stop signals the retention manager to stop
func (rm *RetentionManager) Stop() {
	close(rm.stopCh)
}
