// Package resolver maps public identifiers back to stored link pages.
package resolver

import (
	"context"
	"strings"

	"github.com/planet-nine-app/linkitylink/internal/bdo"
	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/index"
	"github.com/planet-nine-app/linkitylink/internal/logger"
)

// Page is a resolved link page ready for rendering. Demo is set when the
// stored document had no usable links and the demo set was substituted.
type Page struct {
	Title   string
	Links   []domain.LinkRecord
	EmojiID string
	PubKey  string
	Shape   domain.BlobShape
	Demo    bool
}

// DemoSource supplies the fallback links.
type DemoSource interface {
	DemoLinks() []domain.LinkRecord
}

type Resolver struct {
	backend   bdo.Backend
	index     *index.ReverseIndex
	demo      DemoSource
	minPrefix int
	log       logger.Logger
}

func New(backend bdo.Backend, idx *index.ReverseIndex, demo DemoSource, minPrefix int, log logger.Logger) *Resolver {
	return &Resolver{
		backend:   backend,
		index:     idx,
		demo:      demo,
		minPrefix: minPrefix,
		log:       log,
	}
}

// ResolveByEmoji fetches the document published under emojiID.
func (r *Resolver) ResolveByEmoji(ctx context.Context, emojiID string) (Page, error) {
	emojiID = strings.TrimSpace(emojiID)
	if emojiID == "" {
		return Page{}, domain.Validation("emoji identifier is required")
	}
	page, err := r.fetch(ctx, emojiID)
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

// ResolveByPrefix finds the first indexed public key starting with prefix
// and fetches its document.
func (r *Resolver) ResolveByPrefix(ctx context.Context, prefix string) (Page, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) < r.minPrefix {
		return Page{}, domain.Validation("identifier must be at least %d characters", r.minPrefix)
	}

	entry, ok := r.index.LookupPrefix(prefix)
	if !ok {
		return Page{}, domain.NotFound("no link page for identifier %s", prefix)
	}

	page, err := r.fetch(ctx, entry.EmojiID)
	if err != nil {
		return Page{}, err
	}
	page.PubKey = entry.PubKey
	return page, nil
}

func (r *Resolver) fetch(ctx context.Context, emojiID string) (Page, error) {
	raw, err := r.backend.GetByEmoji(ctx, emojiID)
	if err != nil {
		if domain.IsNotFound(err) {
			return Page{}, domain.NotFound("no link page for %s", emojiID)
		}
		return Page{}, err
	}

	page := Page{EmojiID: emojiID}

	blob, err := domain.NormalizeBlob(raw)
	if err != nil {
		r.log.Warn("stored document is unreadable, serving demo links",
			logger.String("emojicode", emojiID),
			logger.Error(err),
		)
	} else {
		page.Title = blob.Title
		page.Links = domain.TruncateLinks(blob.Links)
		page.Shape = blob.Shape
	}

	if len(page.Links) == 0 {
		page.Links = r.demo.DemoLinks()
		page.Demo = true
	}
	return page, nil
}
