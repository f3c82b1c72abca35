package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/handoff"
)

// HandoffStore implements handoff.Store on redis. Each record carries a
// TTL matching its expiry, so redis itself does the sweeping.
type HandoffStore struct {
	*Store
	now func() time.Time
}

func NewHandoffStore(s *Store) *HandoffStore {
	return &HandoffStore{Store: s, now: time.Now}
}

var _ handoff.Store = (*HandoffStore)(nil)

func (s *HandoffStore) Get(ctx context.Context, token string) (*domain.Handoff, error) {
	data, err := s.client.Get(ctx, HandoffKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, handoff.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get handoff: %w", err)
	}

	var h domain.Handoff
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal handoff: %w", err)
	}
	return &h, nil
}

// Put stores h until its expiry. A record that is already expired is
// removed instead.
func (s *HandoffStore) Put(ctx context.Context, h *domain.Handoff) error {
	ttl := h.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.Delete(ctx, h.Token)
	}
	// Redis expirations have millisecond resolution.
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal handoff: %w", err)
	}
	if err := s.client.Set(ctx, HandoffKey(h.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save handoff: %w", err)
	}
	return nil
}

func (s *HandoffStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, HandoffKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete handoff: %w", err)
	}
	return nil
}

// Sweep is a no-op: expired records vanish on their own.
func (s *HandoffStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *HandoffStore) Count(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixHandoff+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count handoffs: %w", err)
	}
	return n, nil
}

func (s *HandoffStore) Mode() string { return "redis" }
