// Package backup pushes cold copies of the reverse index off the host.
package backup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/planet-nine-app/linkitylink/internal/index"
	"github.com/planet-nine-app/linkitylink/internal/logger"
)

// Sink stores one encoded index snapshot.
type Sink interface {
	Name() string
	Store(ctx context.Context, snapshot Snapshot) error
}

// Snapshot is the index as of TakenAt, encoded as the flat JSON object
// the index file uses.
type Snapshot struct {
	Data    []byte
	Entries int
	TakenAt time.Time
}

type Service struct {
	index *index.ReverseIndex
	sinks []Sink
	log   logger.Logger
	now   func() time.Time

	mu   sync.RWMutex
	last time.Time
}

func NewService(idx *index.ReverseIndex, log logger.Logger, sinks ...Sink) *Service {
	return &Service{index: idx, sinks: sinks, log: log, now: time.Now}
}

// Sinks names the configured targets.
func (s *Service) Sinks() []string {
	names := make([]string, 0, len(s.sinks))
	for _, sink := range s.sinks {
		names = append(names, sink.Name())
	}
	return names
}

// Run copies the current index to every sink. Sinks are independent: one
// failing does not stop the others.
func (s *Service) Run(ctx context.Context) error {
	entries := s.index.Snapshot()
	data, err := index.Encode(entries)
	if err != nil {
		return fmt.Errorf("failed to encode index snapshot: %w", err)
	}
	snap := Snapshot{Data: data, Entries: len(entries), TakenAt: s.now().UTC()}

	var errs []error
	stored := 0
	for _, sink := range s.sinks {
		if err := sink.Store(ctx, snap); err != nil {
			s.log.Error("index backup failed", logger.String("sink", sink.Name()), logger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		stored++
		s.log.Info("index backed up",
			logger.String("sink", sink.Name()),
			logger.Int("entries", snap.Entries),
		)
	}

	if stored > 0 {
		s.mu.Lock()
		s.last = snap.TakenAt
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

// LastBackup returns when a snapshot last reached at least one sink.
func (s *Service) LastBackup() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.last
}
