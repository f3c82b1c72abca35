package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/handoff"
	"github.com/planet-nine-app/linkitylink/internal/index"
)

func setupTestRedis(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), s
}

func TestPing(t *testing.T) {
	store, _ := setupTestRedis(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestHandoffStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)
	hs := NewHandoffStore(store)

	now := time.Now()
	h := &domain.Handoff{
		Token:     "tok-1",
		Sequence:  []string{"red", "blue"},
		Draft:     domain.Document{Title: "Mine", Links: []domain.LinkRecord{{Title: "a", URL: "https://a"}}},
		WebPrice:  2000,
		AppPrice:  1500,
		CreatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
	require.NoError(t, hs.Put(ctx, h))

	got, err := hs.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, h.Sequence, got.Sequence)
	assert.Equal(t, "Mine", got.Draft.Title)
	assert.Equal(t, int64(1500), got.AppPrice)

	ttl := mr.TTL(HandoffKey("tok-1"))
	assert.InDelta(t, (30 * time.Minute).Seconds(), ttl.Seconds(), 5)

	n, err := hs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "redis", hs.Mode())
}

func TestHandoffStoreExpiresByTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)
	hs := NewHandoffStore(store)

	require.NoError(t, hs.Put(ctx, &domain.Handoff{Token: "short", ExpiresAt: time.Now().Add(time.Minute)}))

	mr.FastForward(2 * time.Minute)

	_, err := hs.Get(ctx, "short")
	assert.ErrorIs(t, err, handoff.ErrNotFound)

	removed, err := hs.Sweep(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestHandoffStorePutExpiredDeletes(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)
	hs := NewHandoffStore(store)

	require.NoError(t, hs.Put(ctx, &domain.Handoff{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, hs.Put(ctx, &domain.Handoff{Token: "tok", ExpiresAt: time.Now().Add(-time.Second)}))

	_, err := hs.Get(ctx, "tok")
	assert.ErrorIs(t, err, handoff.ErrNotFound)
}

func TestHandoffStoreBacksService(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)

	svc := handoff.NewService(NewHandoffStore(store), nil, handoff.Config{TTL: time.Hour, SequenceLength: 5}, nopLogger())

	created, err := svc.Create(ctx, handoff.CreateRequest{
		DocumentKeys: domain.Keys{PublicKey: "02doc", PrivateKey: "p"},
		WebPrice:     2000,
		AppPrice:     1500,
	})
	require.NoError(t, err)

	require.NoError(t, svc.VerifySequence(ctx, created.Token, created.Sequence))

	st, err := svc.GetStatus(ctx, created.Token)
	require.NoError(t, err)
	assert.True(t, st.SequenceCompleted)
}

func TestIndexMirror(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)
	m := NewIndexMirror(store)

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.MirrorEntry(ctx, domain.ReverseIndexEntry{PubKey: "02aa", EmojiID: "🎉", CreatedAt: at}))
	require.NoError(t, m.MirrorAll(ctx, []domain.ReverseIndexEntry{
		{PubKey: "02bb", EmojiID: "🌍", CreatedAt: at.Add(time.Second)},
		{PubKey: "02aa", EmojiID: "🎉", CreatedAt: at},
	}))

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	idx := index.NewReverseIndex(10)
	added, err := m.Seed(ctx, idx)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	e, ok := idx.LookupPrefix("02bb")
	require.True(t, ok)
	assert.Equal(t, "🌍", e.EmojiID)
	assert.True(t, e.CreatedAt.Equal(at.Add(time.Second)))
}

func TestIndexMirrorSkipsGarbage(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)
	m := NewIndexMirror(store)

	mr.HSet(IndexKey(), "02bad", "not json")
	require.NoError(t, m.MirrorEntry(ctx, domain.ReverseIndexEntry{PubKey: "02ok", EmojiID: "🎉"}))

	entries, err := m.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "02ok", entries[0].PubKey)
}
