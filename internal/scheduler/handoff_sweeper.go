package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/planet-nine-app/linkitylink/internal/logger"
)

// Sweeper removes expired handoffs.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// HandoffSweeper deletes expired handoffs periodically, whatever state
// they reached.
type HandoffSweeper struct {
	sweeper  Sweeper
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewHandoffSweeper(s Sweeper, log logger.Logger, interval time.Duration) *HandoffSweeper {
	return &HandoffSweeper{
		sweeper:  s,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start sweeps immediately, then on every tick.
func (hs *HandoffSweeper) Start(ctx context.Context) error {
	if _, err := hs.Collect(ctx); err != nil {
		hs.logger.Warn("initial handoff sweep failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(hs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := hs.Collect(ctx); err != nil {
					hs.logger.Error("handoff sweep failed",
						logger.Error(err))
				}
			case <-hs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (hs *HandoffSweeper) Stop() {
	hs.stopOnce.Do(func() { close(hs.stopCh) })
}

// Collect runs one sweep and returns how many handoffs were removed.
func (hs *HandoffSweeper) Collect(ctx context.Context) (int, error) {
	removed, err := hs.sweeper.Sweep(ctx)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		hs.logger.Info("expired handoffs removed",
			logger.Int("removed", removed))
	} else {
		hs.logger.Debug("no expired handoffs")
	}
	return removed, nil
}
