package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/planet-nine-app/linkitylink/internal/index"
	"github.com/planet-nine-app/linkitylink/internal/logger"
)

// IndexFlusher writes the reverse index to disk. A flush happens when the
// index asks for one (insertion threshold), when unsaved changes are older
// than maxAge, on manual trigger, and once more on Stop.
type IndexFlusher struct {
	index         *index.ReverseIndex
	path          string
	logger        logger.Logger
	maxAge        time.Duration
	checkEvery    time.Duration
	stopCh        chan struct{}
	doneCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
	mu            sync.Mutex
	now           func() time.Time
}

// NewIndexFlusher creates a flusher for idx writing to path.
func NewIndexFlusher(
	idx *index.ReverseIndex,
	path string,
	log logger.Logger,
	maxAge time.Duration,
	manualTrigger chan struct{},
) *IndexFlusher {
	checkEvery := time.Minute
	if maxAge > 0 && maxAge < checkEvery {
		checkEvery = maxAge
	}
	return &IndexFlusher{
		index:         idx,
		path:          path,
		logger:        log,
		maxAge:        maxAge,
		checkEvery:    checkEvery,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
		now:           time.Now,
	}
}

// Start launches the flush loop.
func (f *IndexFlusher) Start(ctx context.Context) error {
	if f.path == "" {
		return fmt.Errorf("index flusher needs a file path")
	}

	ticker := time.NewTicker(f.checkEvery)
	go func() {
		defer close(f.doneCh)
		defer ticker.Stop()
		for {
			select {
			case <-f.index.FlushRequests():
				f.flushLogged("threshold")
			case <-ticker.C:
				if f.stale() {
					f.flushLogged("interval")
				}
			case <-f.manualTrigger:
				f.logger.Info("manual index flush triggered")
				f.flushLogged("manual")
			case <-f.stopCh:
				if _, dirty := f.index.Dirty(); dirty {
					f.flushLogged("shutdown")
				}
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	f.logger.Info("index flusher started",
		logger.String("path", f.path),
		logger.Duration("max_age", f.maxAge))
	return nil
}

// Stop ends the loop after a final flush of unsaved changes.
func (f *IndexFlusher) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
	<-f.doneCh
}

// Flush writes the index now, dirty or not.
func (f *IndexFlusher) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.index.Save(f.path); err != nil {
		return fmt.Errorf("failed to flush index: %w", err)
	}
	return nil
}

func (f *IndexFlusher) flushLogged(reason string) {
	start := time.Now()
	if err := f.Flush(); err != nil {
		f.logger.Error("index flush failed",
			logger.String("reason", reason),
			logger.Error(err))
		return
	}
	f.logger.Info("index flushed",
		logger.String("reason", reason),
		logger.Int("entries", f.index.Count()),
		logger.Duration("took", time.Since(start)))
}

// stale reports whether unsaved changes have waited longer than maxAge.
func (f *IndexFlusher) stale() bool {
	state, dirty := f.index.Dirty()
	if !dirty || f.maxAge <= 0 {
		return false
	}
	return f.now().Sub(state.Since) >= f.maxAge
}
