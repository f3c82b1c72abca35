package handoff

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planet-nine-app/linkitylink/internal/bdo"
	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/index"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/publish"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakePublisher struct {
	creates atomic.Int32
	calls   atomic.Int32
	release chan struct{}
	err     error
	keys    []domain.Keys
	mu      sync.Mutex
}

func (p *fakePublisher) Create(_ context.Context, _ domain.Keys, doc domain.Document) (string, domain.Document, error) {
	p.creates.Add(1)
	return "doc-" + doc.Title, doc, nil
}

func (p *fakePublisher) Finish(_ context.Context, keys domain.Keys, id string, doc domain.Document) (domain.PublishResult, error) {
	p.calls.Add(1)
	if p.release != nil {
		<-p.release
	}
	if p.err != nil {
		return domain.PublishResult{}, p.err
	}
	p.mu.Lock()
	p.keys = append(p.keys, keys)
	p.mu.Unlock()
	return domain.PublishResult{DocumentID: id, PubKey: keys.PublicKey, EmojiID: "🌍🔑💎"}, nil
}

type fixture struct {
	svc   *Service
	store *MemoryStore
	pub   *fakePublisher
	clock *fakeClock
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	if cfg.TTL == 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Grace == 0 {
		cfg.Grace = 5 * time.Minute
	}
	if cfg.SequenceLength == 0 {
		cfg.SequenceLength = 5
	}

	f := &fixture{
		store: NewMemoryStore(),
		pub:   &fakePublisher{},
		clock: &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.svc = NewService(f.store, f.pub, cfg, logger.New("error", false))
	f.svc.now = f.clock.Now
	f.svc.keygen = func() (domain.Keys, error) {
		return domain.Keys{PublicKey: "02reserveddocumentkey", PrivateKey: "priv"}, nil
	}
	return f
}

func draftRequest() CreateRequest {
	return CreateRequest{
		Draft: domain.Document{
			Title: "Mine",
			Type:  domain.DocumentType,
			Links: []domain.LinkRecord{{Title: "Site", URL: "https://example.com"}},
		},
		Related:     domain.RelatedReferences{EmojiIDs: []string{"🎉"}},
		ProductKind: "linkpage",
		WebPrice:    2000,
		AppPrice:    1500,
	}
}

// create registers a handoff and pins its sequence so tests never depend
// on the random draw.
func (f *fixture) create(t *testing.T, seq ...string) string {
	t.Helper()
	created, err := f.svc.Create(context.Background(), draftRequest())
	require.NoError(t, err)

	if len(seq) > 0 {
		h, err := f.store.Get(context.Background(), created.Token)
		require.NoError(t, err)
		h.Sequence = seq
		require.NoError(t, f.store.Put(context.Background(), h))
	}
	return created.Token
}

func (f *fixture) bind(t *testing.T, appKey string) string {
	t.Helper()
	token := f.create(t, "red", "blue", "green", "yellow", "purple")
	require.NoError(t, f.svc.VerifySequence(context.Background(), token, []string{"red", "blue", "green", "yellow", "purple"}))
	_, err := f.svc.AssociateAppCredentials(context.Background(), token, AppCredentials{PubKey: appKey, Identity: "app-uuid"})
	require.NoError(t, err)
	return token
}

func TestCreate(t *testing.T) {
	f := newFixture(t, Config{})

	created, err := f.svc.Create(context.Background(), draftRequest())
	require.NoError(t, err)

	assert.Len(t, created.Sequence, 5)
	for _, sym := range created.Sequence {
		assert.Contains(t, Alphabet, sym)
	}
	assert.GreaterOrEqual(t, len(created.Token), 32)
	assert.NotContains(t, created.Token, "=")
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), created.ExpiresAt)
	assert.Equal(t, int64(500), created.Discount)
	assert.Equal(t, "02reserveddocumentkey", created.DocumentPubKey)

	other, err := f.svc.Create(context.Background(), draftRequest())
	require.NoError(t, err)
	assert.NotEqual(t, created.Token, other.Token)
}

func TestCreateKeepsGivenKeys(t *testing.T) {
	f := newFixture(t, Config{})
	req := draftRequest()
	req.DocumentKeys = domain.Keys{PublicKey: "02callerkey", PrivateKey: "p"}

	created, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "02callerkey", created.DocumentPubKey)
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	f := newFixture(t, Config{})
	req := draftRequest()
	req.AppPrice = -1

	_, err := f.svc.Create(context.Background(), req)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestStatusRightAfterCreate(t *testing.T) {
	f := newFixture(t, Config{})
	token := f.create(t)

	st, err := f.svc.GetStatus(context.Background(), token)
	require.NoError(t, err)

	assert.False(t, st.SequenceCompleted)
	assert.Nil(t, st.CompletedAt)
	assert.Equal(t, domain.HandoffCreated, st.State)
	assert.Empty(t, st.AppPubKey)
	assert.Empty(t, st.EmojiID)
}

func TestVerifySequenceIgnoresCase(t *testing.T) {
	f := newFixture(t, Config{})
	created, err := f.svc.Create(context.Background(), draftRequest())
	require.NoError(t, err)

	flipped := make([]string, len(created.Sequence))
	for i, s := range created.Sequence {
		flipped[i] = strings.ToUpper(s)
	}

	require.NoError(t, f.svc.VerifySequence(context.Background(), created.Token, flipped))

	st, err := f.svc.GetStatus(context.Background(), created.Token)
	require.NoError(t, err)
	assert.True(t, st.SequenceCompleted)
	assert.Equal(t, domain.HandoffSequenceSolved, st.State)
}

func TestVerifySequenceIsOrderAndLengthSensitive(t *testing.T) {
	tests := []struct {
		name      string
		submitted []string
	}{
		{name: "reversed", submitted: []string{"purple", "yellow", "green", "blue", "red"}},
		{name: "too short", submitted: []string{"red", "blue", "green", "yellow"}},
		{name: "too long", submitted: []string{"red", "blue", "green", "yellow", "purple", "red"}},
		{name: "one wrong", submitted: []string{"red", "blue", "green", "yellow", "orange"}},
		{name: "empty", submitted: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{})
			token := f.create(t, "red", "blue", "green", "yellow", "purple")

			err := f.svc.VerifySequence(context.Background(), token, tt.submitted)
			assert.ErrorIs(t, err, ErrIncorrectSequence)

			st, err := f.svc.GetStatus(context.Background(), token)
			require.NoError(t, err)
			assert.False(t, st.SequenceCompleted)
		})
	}
}

func TestVerifySequenceIsOneShot(t *testing.T) {
	f := newFixture(t, Config{})
	token := f.create(t, "red", "red", "blue", "blue", "green")
	seq := []string{"red", "red", "blue", "blue", "green"}

	require.NoError(t, f.svc.VerifySequence(context.Background(), token, seq))
	assert.ErrorIs(t, f.svc.VerifySequence(context.Background(), token, seq), ErrSequenceAlreadySolved)
}

func TestVerifySequenceAttemptLimit(t *testing.T) {
	f := newFixture(t, Config{MaxAttempts: 3})
	token := f.create(t, "red", "blue", "green", "yellow", "purple")
	wrong := []string{"orange", "orange", "orange", "orange", "orange"}

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, f.svc.VerifySequence(context.Background(), token, wrong), ErrIncorrectSequence)
	}

	// Even the right answer is refused once the budget is spent.
	err := f.svc.VerifySequence(context.Background(), token, []string{"red", "blue", "green", "yellow", "purple"})
	assert.ErrorIs(t, err, ErrTooManyAttempts)
	assert.Equal(t, domain.KindTooManyAttempts, domain.KindOf(err))
}

func TestVerifySequenceUnlimitedAttempts(t *testing.T) {
	f := newFixture(t, Config{})
	token := f.create(t, "red", "blue", "green", "yellow", "purple")

	for i := 0; i < 20; i++ {
		assert.ErrorIs(t, f.svc.VerifySequence(context.Background(), token, []string{"x"}), ErrIncorrectSequence)
	}
	assert.NoError(t, f.svc.VerifySequence(context.Background(), token, []string{"red", "blue", "green", "yellow", "purple"}))
}

func TestAssociateBeforeVerifyAlwaysFails(t *testing.T) {
	f := newFixture(t, Config{})
	token := f.create(t, "red", "blue", "green", "yellow", "purple")
	creds := AppCredentials{PubKey: "02app", Identity: "app-uuid"}

	for i := 0; i < 5; i++ {
		_, err := f.svc.AssociateAppCredentials(context.Background(), token, creds)
		assert.ErrorIs(t, err, ErrSequenceNotSolved)
		assert.Equal(t, domain.KindState, domain.KindOf(err))
	}

	require.NoError(t, f.svc.VerifySequence(context.Background(), token, []string{"red", "blue", "green", "yellow", "purple"}))

	view, err := f.svc.AssociateAppCredentials(context.Background(), token, creds)
	require.NoError(t, err)
	assert.Equal(t, domain.HandoffAppBound, view.State)
	assert.Equal(t, "Mine", view.Document.Title)
	assert.Equal(t, int64(500), view.Discount)
	assert.Equal(t, []string{"🎉"}, view.Related.EmojiIDs)
}

func TestAssociateRebinding(t *testing.T) {
	f := newFixture(t, Config{})
	token := f.bind(t, "02app")

	_, err := f.svc.AssociateAppCredentials(context.Background(), token, AppCredentials{PubKey: "02app"})
	assert.NoError(t, err, "same key rebinding is idempotent")

	_, err = f.svc.AssociateAppCredentials(context.Background(), token, AppCredentials{PubKey: "02other"})
	assert.ErrorIs(t, err, ErrAlreadyBound)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = f.svc.GetForApp(context.Background(), token, "02app")
	assert.NoError(t, err, "the original binding survives")
}

func TestAssociateRequiresPubKey(t *testing.T) {
	f := newFixture(t, Config{})
	token := f.create(t)

	_, err := f.svc.AssociateAppCredentials(context.Background(), token, AppCredentials{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestGetForApp(t *testing.T) {
	f := newFixture(t, Config{})

	unbound := f.create(t)
	_, err := f.svc.GetForApp(context.Background(), unbound, "02app")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	token := f.bind(t, "02app")
	_, err = f.svc.GetForApp(context.Background(), token, "02other")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	view, err := f.svc.GetForApp(context.Background(), token, "02app")
	require.NoError(t, err)
	assert.Equal(t, token, view.Token)
	assert.Equal(t, int64(1500), view.AppPrice)
}

func TestStatusTruncatesAppKey(t *testing.T) {
	f := newFixture(t, Config{})
	appKey := "03" + strings.Repeat("ab", 32)
	token := f.bind(t, appKey)

	st, err := f.svc.GetStatus(context.Background(), token)
	require.NoError(t, err)

	assert.NotEqual(t, appKey, st.AppPubKey)
	assert.True(t, strings.HasPrefix(appKey, strings.TrimSuffix(st.AppPubKey, "...")))
	assert.Less(t, len(st.AppPubKey), len(appKey))
	assert.Nil(t, st.CompletedAt)
}

func TestCompletePublishesWithReservedKeys(t *testing.T) {
	f := newFixture(t, Config{})
	token := f.bind(t, "02app")

	f.clock.Advance(time.Minute)
	res, err := f.svc.Complete(context.Background(), token, "02app")
	require.NoError(t, err)

	assert.Equal(t, "02reserveddocumentkey", res.PubKey)
	assert.Equal(t, "🌍🔑💎", res.EmojiID)
	require.Len(t, f.pub.keys, 1)
	assert.Equal(t, "02reserveddocumentkey", f.pub.keys[0].PublicKey)

	st, err := f.svc.GetStatus(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, st.CompletedAt)
	assert.Equal(t, domain.HandoffCompleted, st.State)
	assert.Equal(t, "🌍🔑💎", st.EmojiID)
	assert.Equal(t, "02reserveddocumentkey", st.PubKey)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), st.ExpiresAt)
}

func TestCompleteIsGuarded(t *testing.T) {
	f := newFixture(t, Config{})
	token := f.bind(t, "02app")

	first, err := f.svc.Complete(context.Background(), token, "02app")
	require.NoError(t, err)
	second, err := f.svc.Complete(context.Background(), token, "02app")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.pub.calls.Load())
}

func TestCompleteConcurrentCallsPublishOnce(t *testing.T) {
	f := newFixture(t, Config{})
	token := f.bind(t, "02app")
	f.pub.release = make(chan struct{})

	var wg sync.WaitGroup
	results := make([]domain.PublishResult, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Complete(context.Background(), token, "02app")
		}(i)
	}
	close(f.pub.release)
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, int32(1), f.pub.calls.Load())
}

func TestCompleteAuthorization(t *testing.T) {
	f := newFixture(t, Config{})

	unbound := f.create(t)
	_, err := f.svc.Complete(context.Background(), unbound, "02app")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	token := f.bind(t, "02app")
	_, err = f.svc.Complete(context.Background(), token, "02intruder")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))
	assert.Equal(t, int32(0), f.pub.calls.Load())
}

func TestCompletePublishFailureCanBeRetried(t *testing.T) {
	f := newFixture(t, Config{})
	token := f.bind(t, "02app")
	f.pub.err = domain.Upstream(errors.New("boom"), "storage backend unreachable")

	_, err := f.svc.Complete(context.Background(), token, "02app")
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))

	st, err := f.svc.GetStatus(context.Background(), token)
	require.NoError(t, err)
	assert.Nil(t, st.CompletedAt)

	f.pub.err = nil
	res, err := f.svc.Complete(context.Background(), token, "02app")
	require.NoError(t, err)
	assert.Equal(t, "doc-Mine", res.DocumentID)
	assert.Equal(t, int32(1), f.pub.creates.Load(), "a retry must not store the draft again")
}

// flakyBackend fails the first publish call and passes everything else through.
type flakyBackend struct {
	*bdo.MemoryBackend
	failed atomic.Bool
}

func (b *flakyBackend) Publish(ctx context.Context, keys domain.Keys, id string, blob any) (string, error) {
	if b.failed.CompareAndSwap(false, true) {
		return "", domain.Upstream(errors.New("timeout"), "storage backend unreachable")
	}
	return b.MemoryBackend.Publish(ctx, keys, id, blob)
}

func TestCompleteRetryAfterPublishFailureKeepsOneDocument(t *testing.T) {
	backend := &flakyBackend{MemoryBackend: bdo.NewMemoryBackend()}
	idx := index.NewReverseIndex(10)
	pub := publish.NewService(backend, idx, nil, logger.New("error", false))

	f := newFixture(t, Config{})
	f.svc.publisher = pub
	token := f.bind(t, "02app")

	_, err := f.svc.Complete(context.Background(), token, "02app")
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))

	h, err := f.store.Get(context.Background(), token)
	require.NoError(t, err)
	require.NotEmpty(t, h.DocumentID)
	assert.False(t, h.Draft.CreatedAt.IsZero())

	res, err := f.svc.Complete(context.Background(), token, "02app")
	require.NoError(t, err)

	assert.Equal(t, h.DocumentID, res.DocumentID)
	assert.Equal(t, "02reserveddocumentkey", res.PubKey)
	assert.Equal(t, 1, backend.Count(), "the reserved identity must sign exactly one document")

	entry, ok := idx.Lookup("02reserveddocumentkey")
	require.True(t, ok)
	assert.Equal(t, res.EmojiID, entry.EmojiID)
}

func TestExpiredHandoffIsUnreachable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})

	created, err := f.svc.CreateWithTTL(ctx, draftRequest(), 0)
	require.NoError(t, err)
	token := created.Token

	err = f.svc.VerifySequence(ctx, token, created.Sequence)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.AssociateAppCredentials(ctx, token, AppCredentials{PubKey: "02app"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetStatus(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetForApp(ctx, token, "02app")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Complete(ctx, token, "02app")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, domain.IsNotFound(err))
}

func TestHandoffExpiresAfterTTL(t *testing.T) {
	f := newFixture(t, Config{TTL: 10 * time.Minute})
	token := f.bind(t, "02app")

	f.clock.Advance(10 * time.Minute)

	_, err := f.svc.Complete(context.Background(), token, "02app")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(0), f.pub.calls.Load())
}

func TestUnknownToken(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.svc.GetStatus(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.GetStatus(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{TTL: 30 * time.Minute, Grace: 5 * time.Minute})

	short, err := f.svc.CreateWithTTL(ctx, draftRequest(), time.Minute)
	require.NoError(t, err)
	solved := f.create(t, "red", "blue", "green", "yellow", "purple")
	require.NoError(t, f.svc.VerifySequence(ctx, solved, []string{"red", "blue", "green", "yellow", "purple"}))
	completed := f.bind(t, "02app")
	_, err = f.svc.Complete(ctx, completed, "02app")
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	removed, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = f.store.Get(ctx, short.Token)
	assert.ErrorIs(t, err, ErrNotFound)

	// Past its grace window the completed handoff goes too.
	f.clock.Advance(4 * time.Minute)
	removed, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = f.svc.GetStatus(ctx, solved)
	assert.NoError(t, err, "an unexpired handoff survives the sweep regardless of state")

	n, err := f.svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSequenceMatches(t *testing.T) {
	stored := []string{"red", "blue", "green"}

	tests := []struct {
		name      string
		submitted []string
		want      bool
	}{
		{name: "exact", submitted: []string{"red", "blue", "green"}, want: true},
		{name: "mixed case", submitted: []string{"RED", "Blue", "gReEn"}, want: true},
		{name: "surrounding space", submitted: []string{" red", "blue ", "green"}, want: true},
		{name: "reordered", submitted: []string{"blue", "red", "green"}, want: false},
		{name: "prefix", submitted: []string{"red", "blue"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sequenceMatches(stored, tt.submitted))
		})
	}
}

func TestNewSequenceDrawsFromAlphabet(t *testing.T) {
	seq, err := newSequence(200)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, s := range seq {
		assert.Contains(t, Alphabet, s)
		seen[s] = true
	}
	// 200 draws over six symbols repeat with overwhelming probability.
	assert.Less(t, len(seen), len(seq))
}
