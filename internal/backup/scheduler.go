package backup

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"docuvault/internal/access"
	"docuvault/internal/model"
)

// schedulerActor is the principal attributed to automatic snapshots. It runs
// with admin capabilities so the permission gate in Create passes.
var schedulerActor = access.Actor{
	UserID:   "system",
	Username: "system",
	Role:     model.RoleAdmin,
}

// RunScheduled takes a snapshot every interval until ctx is cancelled. A
// failed snapshot is logged and the schedule keeps running, so a transient
// destination problem does not stop future backups.
func (e *Engine) RunScheduled(ctx context.Context, interval time.Duration) {
	e.log.Info("backup scheduler started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("backup scheduler stopped")
			return
		case <-ticker.C:
			if _, err := e.Create(ctx, schedulerActor); err != nil {
				if errors.Is(err, ErrBackupInProgress) {
					continue
				}
				e.log.Warn("scheduled backup failed", zap.Error(err))
			}
		}
	}
}
