// Package handoff coordinates a purchase started in the browser and
// finished by the companion app.
//
// A handoff moves created -> sequence_solved -> app_bound -> completed and
// is unreachable once it expires. Every transition is a read-modify-write
// under the service lock; only the publish call of Complete runs outside it.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/sessionless"
)

// Publisher runs the create+publish pipeline for a completed handoff in
// two steps, so a failed publish resumes without storing the draft twice.
type Publisher interface {
	Create(ctx context.Context, keys domain.Keys, doc domain.Document) (string, domain.Document, error)
	Finish(ctx context.Context, keys domain.Keys, id string, doc domain.Document) (domain.PublishResult, error)
}

type Config struct {
	TTL            time.Duration // lifetime of a fresh handoff
	Grace          time.Duration // extra lifetime after completion
	SequenceLength int
	MaxAttempts    int // incorrect sequence submissions allowed, 0 = unlimited
}

type Service struct {
	mu        sync.Mutex
	store     Store
	publisher Publisher
	cfg       Config
	log       logger.Logger
	flight    singleflight.Group

	now    func() time.Time
	keygen func() (domain.Keys, error)
}

func NewService(store Store, publisher Publisher, cfg Config, log logger.Logger) *Service {
	if cfg.SequenceLength < 1 {
		cfg.SequenceLength = 5
	}
	return &Service{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		keygen:    sessionless.GenerateKeys,
	}
}

// StoreMode names the backing store.
func (s *Service) StoreMode() string { return s.store.Mode() }

// CreateRequest describes the purchase to hand off. DocumentKeys is the
// reserved identity of the eventual document; one is generated when empty.
type CreateRequest struct {
	Draft        domain.Document
	DocumentKeys domain.Keys
	Related      domain.RelatedReferences
	ProductKind  string
	WebPrice     int64
	AppPrice     int64
}

// Created is returned to the web client, which displays the sequence.
type Created struct {
	Token          string    `json:"token"`
	Sequence       []string  `json:"sequence"`
	ExpiresAt      time.Time `json:"expiresAt"`
	DocumentPubKey string    `json:"documentPubKey"`
	WebPrice       int64     `json:"webPrice"`
	AppPrice       int64     `json:"appPrice"`
	Discount       int64     `json:"discount"`
	ProductKind    string    `json:"productKind"`
	SequenceLength int       `json:"sequenceLength"`
}

// Create registers a new handoff with the configured TTL.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Created, error) {
	return s.CreateWithTTL(ctx, req, s.cfg.TTL)
}

// CreateWithTTL registers a new handoff living for ttl. A ttl of zero or
// less yields a handoff that is already expired.
func (s *Service) CreateWithTTL(ctx context.Context, req CreateRequest, ttl time.Duration) (Created, error) {
	if req.WebPrice < 0 || req.AppPrice < 0 {
		return Created{}, domain.Validation("prices must not be negative")
	}
	if ttl < 0 {
		ttl = 0
	}

	token, err := newToken()
	if err != nil {
		return Created{}, err
	}
	seq, err := newSequence(s.cfg.SequenceLength)
	if err != nil {
		return Created{}, err
	}

	keys := req.DocumentKeys
	if keys.PublicKey == "" {
		if keys, err = s.keygen(); err != nil {
			return Created{}, fmt.Errorf("failed to reserve document keys: %w", err)
		}
	}

	now := s.now().UTC()
	h := &domain.Handoff{
		Token:        token,
		Sequence:     seq,
		Draft:        req.Draft,
		DocumentKeys: keys,
		Related:      req.Related,
		ProductKind:  req.ProductKind,
		WebPrice:     req.WebPrice,
		AppPrice:     req.AppPrice,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}

	s.mu.Lock()
	err = s.store.Put(ctx, h)
	s.mu.Unlock()
	if err != nil {
		return Created{}, fmt.Errorf("failed to store handoff: %w", err)
	}

	s.log.Info("handoff created",
		logger.String("token", redact(token)),
		logger.String("productKind", req.ProductKind),
		logger.Time("expiresAt", h.ExpiresAt),
	)

	return Created{
		Token:          token,
		Sequence:       append([]string(nil), seq...),
		ExpiresAt:      h.ExpiresAt,
		DocumentPubKey: keys.PublicKey,
		WebPrice:       h.WebPrice,
		AppPrice:       h.AppPrice,
		Discount:       h.Discount(),
		ProductKind:    h.ProductKind,
		SequenceLength: len(seq),
	}, nil
}

// load fetches a live handoff. Expired entries that the sweep has not yet
// removed are reported exactly like unknown tokens. Callers hold s.mu.
func (s *Service) load(ctx context.Context, token string) (*domain.Handoff, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	h, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load handoff: %w", err)
	}
	if h.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return h, nil
}

// VerifySequence checks the submitted challenge. It succeeds once per
// handoff; resubmission after success fails.
func (s *Service) VerifySequence(ctx context.Context, token string, submitted []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.load(ctx, token)
	if err != nil {
		return err
	}
	if h.SequenceCompleted {
		return ErrSequenceAlreadySolved
	}
	if s.cfg.MaxAttempts > 0 && h.Attempts >= s.cfg.MaxAttempts {
		return ErrTooManyAttempts
	}

	if !sequenceMatches(h.Sequence, submitted) {
		if s.cfg.MaxAttempts > 0 {
			h.Attempts++
			if err := s.store.Put(ctx, h); err != nil {
				return fmt.Errorf("failed to store handoff: %w", err)
			}
		}
		s.log.Debug("handoff sequence rejected",
			logger.String("token", redact(token)),
			logger.Int("attempts", h.Attempts),
		)
		return ErrIncorrectSequence
	}

	h.SequenceCompleted = true
	if err := s.store.Put(ctx, h); err != nil {
		return fmt.Errorf("failed to store handoff: %w", err)
	}
	s.log.Info("handoff sequence solved", logger.String("token", redact(token)))
	return nil
}

// AppCredentials identify the companion app taking over the purchase.
type AppCredentials struct {
	PubKey   string
	Identity string
}

// AppView is what the app needs to render a purchase confirmation.
type AppView struct {
	Token       string                   `json:"token"`
	State       domain.HandoffState      `json:"state"`
	Document    domain.Document          `json:"document"`
	DocumentPub string                   `json:"documentPubKey"`
	Related     domain.RelatedReferences `json:"relevantBDOs"`
	ProductKind string                   `json:"productKind"`
	WebPrice    int64                    `json:"webPrice"`
	AppPrice    int64                    `json:"appPrice"`
	Discount    int64                    `json:"discount"`
	ExpiresAt   time.Time                `json:"expiresAt"`
	Result      *domain.PublishResult    `json:"result,omitempty"`
}

func (s *Service) appView(h *domain.Handoff) AppView {
	return AppView{
		Token:       h.Token,
		State:       h.State(s.now()),
		Document:    h.Draft,
		DocumentPub: h.DocumentKeys.PublicKey,
		Related:     h.Related,
		ProductKind: h.ProductKind,
		WebPrice:    h.WebPrice,
		AppPrice:    h.AppPrice,
		Discount:    h.Discount(),
		ExpiresAt:   h.ExpiresAt,
		Result:      h.Result,
	}
}

// AssociateAppCredentials binds the app to the handoff. It requires a
// solved sequence. Binding again with the same key is a no-op; a different
// key is a conflict.
func (s *Service) AssociateAppCredentials(ctx context.Context, token string, creds AppCredentials) (AppView, error) {
	if strings.TrimSpace(creds.PubKey) == "" {
		return AppView{}, domain.Validation("pubKey is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.load(ctx, token)
	if err != nil {
		return AppView{}, err
	}
	if !h.SequenceCompleted {
		return AppView{}, ErrSequenceNotSolved
	}

	switch h.BoundAppPubKey {
	case creds.PubKey:
		return s.appView(h), nil
	case "":
	default:
		s.log.Warn("handoff rebind refused", logger.String("token", redact(token)))
		return AppView{}, ErrAlreadyBound
	}

	h.BoundAppPubKey = creds.PubKey
	h.BoundAppIdentity = creds.Identity
	if err := s.store.Put(ctx, h); err != nil {
		return AppView{}, fmt.Errorf("failed to store handoff: %w", err)
	}

	s.log.Info("handoff bound to app",
		logger.String("token", redact(token)),
		logger.String("appPubKey", redact(creds.PubKey)),
	)
	return s.appView(h), nil
}

// GetForApp returns the app view to the app that bound the handoff.
func (s *Service) GetForApp(ctx context.Context, token, appPubKey string) (AppView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.load(ctx, token)
	if err != nil {
		return AppView{}, err
	}
	if h.BoundAppPubKey == "" || h.BoundAppPubKey != appPubKey {
		return AppView{}, ErrNotAuthorized
	}
	return s.appView(h), nil
}

// Status is safe for unauthenticated polling: the app key is truncated
// and the document is never exposed.
type Status struct {
	State             domain.HandoffState `json:"state"`
	SequenceCompleted bool                `json:"sequenceCompleted"`
	AppPubKey         string              `json:"appPubKey,omitempty"`
	CompletedAt       *time.Time          `json:"completedAt"`
	EmojiID           string              `json:"emojicode,omitempty"`
	PubKey            string              `json:"pubKey,omitempty"`
	ExpiresAt         time.Time           `json:"expiresAt"`
}

func (s *Service) GetStatus(ctx context.Context, token string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.load(ctx, token)
	if err != nil {
		return Status{}, err
	}

	st := Status{
		State:             h.State(s.now()),
		SequenceCompleted: h.SequenceCompleted,
		AppPubKey:         redact(h.BoundAppPubKey),
		CompletedAt:       h.CompletedAt,
		ExpiresAt:         h.ExpiresAt,
	}
	if h.CompletedAt != nil && h.Result != nil {
		st.EmojiID = h.Result.EmojiID
		st.PubKey = h.Result.PubKey
	}
	return st, nil
}

// Complete publishes the draft under the reserved identity. Concurrent
// calls share one publish; later calls return the first result.
func (s *Service) Complete(ctx context.Context, token, appPubKey string) (domain.PublishResult, error) {
	v, err, _ := s.flight.Do(token+"\x00"+appPubKey, func() (any, error) {
		return s.complete(context.WithoutCancel(ctx), token, appPubKey)
	})
	if err != nil {
		return domain.PublishResult{}, err
	}
	return v.(domain.PublishResult), nil
}

func (s *Service) complete(ctx context.Context, token, appPubKey string) (domain.PublishResult, error) {
	s.mu.Lock()
	h, err := s.load(ctx, token)
	if err != nil {
		s.mu.Unlock()
		return domain.PublishResult{}, err
	}
	if h.BoundAppPubKey == "" || h.BoundAppPubKey != appPubKey {
		s.mu.Unlock()
		return domain.PublishResult{}, ErrNotAuthorized
	}
	if h.CompletedAt != nil && h.Result != nil {
		s.mu.Unlock()
		return *h.Result, nil
	}
	keys, draft, docID := h.DocumentKeys, h.Draft, h.DocumentID
	s.mu.Unlock()

	if docID == "" {
		docID, draft, err = s.publisher.Create(ctx, keys, draft)
		if err != nil {
			s.log.Error("handoff completion failed", logger.String("token", redact(token)), logger.Error(err))
			return domain.PublishResult{}, err
		}
		s.recordCreated(ctx, token, docID, draft)
	}

	res, err := s.publisher.Finish(ctx, keys, docID, draft)
	if err != nil {
		s.log.Error("handoff completion failed", logger.String("token", redact(token)), logger.Error(err))
		return domain.PublishResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	h, err = s.store.Get(ctx, token)
	if err != nil {
		// Swept while publishing; the document exists regardless.
		s.log.Warn("handoff vanished during completion", logger.String("token", redact(token)), logger.Error(err))
		return res, nil
	}
	h.CompletedAt = &now
	h.Result = &res
	h.ExpiresAt = now.Add(s.cfg.Grace)
	if err := s.store.Put(ctx, h); err != nil {
		s.log.Warn("failed to record handoff completion", logger.String("token", redact(token)), logger.Error(err))
	}

	s.log.Info("handoff completed",
		logger.String("token", redact(token)),
		logger.String("emojicode", res.EmojiID),
	)
	return res, nil
}

// recordCreated remembers the stored draft so a retry only publishes it.
func (s *Service) recordCreated(ctx context.Context, token, docID string, draft domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.store.Get(ctx, token)
	if err != nil {
		return
	}
	h.DocumentID = docID
	h.Draft = draft
	if err := s.store.Put(ctx, h); err != nil {
		s.log.Warn("failed to record created document",
			logger.String("token", redact(token)),
			logger.String("uuid", docID),
			logger.Error(err))
	}
}

// Sweep deletes every expired handoff, whatever its state.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Sweep(ctx, s.now())
}

// Count returns how many handoffs are stored, expired ones included.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// redact keeps enough of a key or token to correlate log lines.
func redact(s string) string {
	const keep = 8
	if len(s) <= keep {
		return s
	}
	return s[:keep] + "..."
}
