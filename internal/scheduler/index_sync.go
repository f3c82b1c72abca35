package scheduler

import (
	"context"
	"fmt"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/index"
	"github.com/planet-nine-app/linkitylink/internal/logger"
)

// IndexMirror is a shared copy of the reverse index.
type IndexMirror interface {
	LoadAll(ctx context.Context) ([]domain.ReverseIndexEntry, error)
	MirrorAll(ctx context.Context, entries []domain.ReverseIndexEntry) error
}

// IndexSyncer reconciles the in-process index with its redis mirror on startup.
type IndexSyncer struct {
	mirror IndexMirror
	index  *index.ReverseIndex
	logger logger.Logger
}

func NewIndexSyncer(mirror IndexMirror, idx *index.ReverseIndex, log logger.Logger) *IndexSyncer {
	return &IndexSyncer{
		mirror: mirror,
		index:  idx,
		logger: log,
	}
}

// Pull merges mirrored entries into the index. Local entries win.
func (s *IndexSyncer) Pull(ctx context.Context) (int, error) {
	s.logger.Info("seeding index from redis")

	entries, err := s.mirror.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read index mirror: %w", err)
	}
	if len(entries) == 0 {
		s.logger.Info("no index entries found in redis")
		return 0, nil
	}

	added := s.index.Merge(entries)
	if added > 0 {
		// Seeded entries exist only in redis so far.
		s.index.RequestFlush()
	}

	s.logger.Info("seeded index from redis",
		logger.Int("mirrored", len(entries)),
		logger.Int("added", added))
	return added, nil
}

// Push writes the whole index to the mirror.
func (s *IndexSyncer) Push(ctx context.Context) error {
	entries := s.index.Snapshot()
	if err := s.mirror.MirrorAll(ctx, entries); err != nil {
		return fmt.Errorf("failed to push index to redis: %w", err)
	}
	s.logger.Info("pushed index to redis",
		logger.Int("count", len(entries)))
	return nil
}
