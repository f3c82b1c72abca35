package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/index"
)

// IndexMirror copies reverse-index entries into a redis hash.
type IndexMirror struct {
	*Store
}

func NewIndexMirror(s *Store) *IndexMirror {
	return &IndexMirror{Store: s}
}

// MirrorEntry writes one entry.
func (m *IndexMirror) MirrorEntry(ctx context.Context, entry domain.ReverseIndexEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal index entry: %w", err)
	}
	if err := m.client.HSet(ctx, IndexKey(), entry.PubKey, data).Err(); err != nil {
		return fmt.Errorf("failed to mirror index entry: %w", err)
	}
	return nil
}

// MirrorAll writes every entry in one pipeline.
func (m *IndexMirror) MirrorAll(ctx context.Context, entries []domain.ReverseIndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := m.client.Pipeline()
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal index entry %s: %w", e.PubKey, err)
		}
		pipe.HSet(ctx, IndexKey(), e.PubKey, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mirror index: %w", err)
	}
	return nil
}

// LoadAll reads the mirrored entries. Unreadable fields are skipped.
func (m *IndexMirror) LoadAll(ctx context.Context) ([]domain.ReverseIndexEntry, error) {
	fields, err := m.client.HGetAll(ctx, IndexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index mirror: %w", err)
	}

	entries := make([]domain.ReverseIndexEntry, 0, len(fields))
	for pubKey, raw := range fields {
		var e domain.ReverseIndexEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		e.PubKey = pubKey
		entries = append(entries, e)
	}
	return entries, nil
}

// Count returns the number of mirrored entries.
func (m *IndexMirror) Count(ctx context.Context) (int, error) {
	n, err := m.client.HLen(ctx, IndexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count index mirror: %w", err)
	}
	return int(n), nil
}

// Seed merges the mirror into idx and returns how many entries were added.
func (m *IndexMirror) Seed(ctx context.Context, idx *index.ReverseIndex) (int, error) {
	entries, err := m.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return idx.Merge(entries), nil
}
