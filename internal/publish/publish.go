// Package publish is the create+publish pipeline shared by direct
// purchases and handoff completion.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/planet-nine-app/linkitylink/internal/bdo"
	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/index"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/sessionless"
)

// Mirror receives every new reverse-index entry. Failures are logged only.
type Mirror interface {
	MirrorEntry(ctx context.Context, entry domain.ReverseIndexEntry) error
}

type Service struct {
	backend bdo.Backend
	index   *index.ReverseIndex
	mirror  Mirror
	log     logger.Logger
	now     func() time.Time
}

func NewService(backend bdo.Backend, idx *index.ReverseIndex, mirror Mirror, log logger.Logger) *Service {
	return &Service{
		backend: backend,
		index:   idx,
		mirror:  mirror,
		log:     log,
		now:     time.Now,
	}
}

// PublishNew mints a fresh identity for doc and publishes it.
func (s *Service) PublishNew(ctx context.Context, doc domain.Document) (domain.PublishResult, error) {
	keys, err := sessionless.GenerateKeys()
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("failed to generate document keys: %w", err)
	}
	return s.Publish(ctx, keys, doc)
}

// Publish stores doc under keys, makes it public and records it in the
// reverse index. keys is consumed: it must not sign another document.
func (s *Service) Publish(ctx context.Context, keys domain.Keys, doc domain.Document) (domain.PublishResult, error) {
	id, doc, err := s.Create(ctx, keys, doc)
	if err != nil {
		return domain.PublishResult{}, err
	}
	return s.Finish(ctx, keys, id, doc)
}

// Create stores doc under keys without making it public. It returns the
// backend uuid and the stamped document; a caller that retries after a
// failed Finish passes both back instead of creating again.
func (s *Service) Create(ctx context.Context, keys domain.Keys, doc domain.Document) (string, domain.Document, error) {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now().UTC()
	}
	if doc.Type == "" {
		doc.Type = domain.DocumentType
	}

	id, err := s.backend.Create(ctx, keys, doc)
	if err != nil {
		s.log.Error("document create failed", logger.String("pubKey", keys.PublicKey), logger.Error(err))
		return "", doc, err
	}
	return id, doc, nil
}

// Finish publishes the document created as id and records it in the
// reverse index.
func (s *Service) Finish(ctx context.Context, keys domain.Keys, id string, doc domain.Document) (domain.PublishResult, error) {
	emojiID, err := s.backend.Publish(ctx, keys, id, doc)
	if err != nil {
		s.log.Error("document publish failed",
			logger.String("pubKey", keys.PublicKey),
			logger.String("uuid", id),
			logger.Error(err),
		)
		return domain.PublishResult{}, err
	}

	entry := domain.ReverseIndexEntry{PubKey: keys.PublicKey, EmojiID: emojiID, CreatedAt: s.now().UTC()}
	s.index.Register(entry)

	if s.mirror != nil {
		if err := s.mirror.MirrorEntry(ctx, entry); err != nil {
			s.log.Warn("reverse index mirror write failed", logger.String("pubKey", keys.PublicKey), logger.Error(err))
		}
	}

	s.log.Info("document published",
		logger.String("uuid", id),
		logger.String("pubKey", keys.PublicKey),
		logger.String("emojicode", emojiID),
		logger.Int("links", len(doc.Links)),
	)

	return domain.PublishResult{DocumentID: id, PubKey: keys.PublicKey, EmojiID: emojiID}, nil
}
