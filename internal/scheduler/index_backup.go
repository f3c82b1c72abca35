package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/planet-nine-app/linkitylink/internal/logger"
)

// Backuper takes one cold backup.
type Backuper interface {
	Run(ctx context.Context) error
}

// IndexBackup runs cold backups of the reverse index on a fixed cadence.
// The first backup happens one interval after start.
type IndexBackup struct {
	backup   Backuper
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewIndexBackup(b Backuper, log logger.Logger, interval time.Duration) *IndexBackup {
	return &IndexBackup{
		backup:   b,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (ib *IndexBackup) Start(ctx context.Context) error {
	ticker := time.NewTicker(ib.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ib.RunOnce(ctx)
			case <-ib.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	ib.logger.Info("index backup scheduled",
		logger.Duration("interval", ib.interval))
	return nil
}

func (ib *IndexBackup) Stop() {
	ib.stopOnce.Do(func() { close(ib.stopCh) })
}

// RunOnce takes a backup and logs the outcome. Failures never stop the schedule.
func (ib *IndexBackup) RunOnce(ctx context.Context) {
	if err := ib.backup.Run(ctx); err != nil {
		ib.logger.Error("index backup failed", logger.Error(err))
	}
}
