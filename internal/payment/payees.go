// Package payment assembles revenue splits and creates payment intents.
package payment

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/planet-nine-app/linkitylink/internal/bdo"
	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/logger"
)

const maxConcurrentFetches = 8

// Collector gathers payees declared by referenced documents.
type Collector struct {
	backend bdo.Backend
	log     logger.Logger
}

func NewCollector(backend bdo.Backend, log logger.Logger) *Collector {
	return &Collector{backend: backend, log: log}
}

// Collect fetches every referenced document concurrently and merges their
// payees. A reference that fails to load contributes nothing. Duplicates
// are dropped by Payee.DedupKey; the first seen wins, in reference order
// (emoji identifiers, then public keys).
func (c *Collector) Collect(ctx context.Context, refs domain.RelatedReferences) []domain.Payee {
	type fetch struct {
		kind string
		id   string
		get  func(context.Context, string) ([]byte, error)
	}

	fetches := make([]fetch, 0, len(refs.EmojiIDs)+len(refs.PubKeys))
	for _, id := range refs.EmojiIDs {
		fetches = append(fetches, fetch{kind: "emojicode", id: id, get: c.backend.GetByEmoji})
	}
	for _, id := range refs.PubKeys {
		fetches = append(fetches, fetch{kind: "pubKey", id: id, get: c.backend.GetByPubKey})
	}
	if len(fetches) == 0 {
		return nil
	}

	found := make([][]domain.Payee, len(fetches))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for i, f := range fetches {
		i, f := i, f
		g.Go(func() error {
			raw, err := f.get(ctx, f.id)
			if err != nil {
				c.log.Warn("payee reference fetch failed",
					logger.String(f.kind, f.id),
					logger.Error(err),
				)
				return nil
			}
			blob, err := domain.NormalizeBlob(raw)
			if err != nil {
				c.log.Warn("payee reference unreadable",
					logger.String(f.kind, f.id),
					logger.Error(err),
				)
				return nil
			}
			found[i] = blob.Payees
			return nil
		})
	}
	_ = g.Wait()

	return dedup(found)
}

func dedup(groups [][]domain.Payee) []domain.Payee {
	seen := make(map[string]struct{})
	var out []domain.Payee
	for _, payees := range groups {
		for _, p := range payees {
			key := p.DedupKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
