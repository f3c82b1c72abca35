package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planet-nine-app/linkitylink/internal/bdo"
	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/index"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/sources/catalog"
)

// stubBackend serves fixed raw blobs by emoji identifier.
type stubBackend struct {
	bdo.Backend
	blobs map[string]string
	err   error
}

func (s *stubBackend) GetByEmoji(_ context.Context, emojiID string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	raw, ok := s.blobs[emojiID]
	if !ok {
		return nil, domain.NotFound("not found")
	}
	return []byte(raw), nil
}

func newResolver(backend bdo.Backend, idx *index.ReverseIndex) *Resolver {
	return New(backend, idx, catalog.Default(), 8, logger.New("error", false))
}

func TestResolveByEmojiShapes(t *testing.T) {
	backend := &stubBackend{blobs: map[string]string{
		"flat":       `{"bdo":{"title":"Flat","links":[{"title":"a","url":"https://a"}]}}`,
		"data":       `{"data":{"title":"Data","links":[{"title":"b","url":"https://b"}]}}`,
		"carrierBag": `{"data":{"carrierBag":{"links":[{"title":"c","url":"https://c"}]}}}`,
	}}
	r := newResolver(backend, index.NewReverseIndex(10))

	tests := []struct {
		emoji string
		shape domain.BlobShape
		url   string
	}{
		{emoji: "flat", shape: domain.ShapeFlat, url: "https://a"},
		{emoji: "data", shape: domain.ShapeData, url: "https://b"},
		{emoji: "carrierBag", shape: domain.ShapeCarrierBag, url: "https://c"},
	}

	for _, tt := range tests {
		t.Run(tt.emoji, func(t *testing.T) {
			page, err := r.ResolveByEmoji(context.Background(), tt.emoji)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, page.Shape)
			assert.False(t, page.Demo)
			require.Len(t, page.Links, 1)
			assert.Equal(t, tt.url, page.Links[0].URL)
		})
	}
}

func TestResolveFallsBackToDemoLinks(t *testing.T) {
	backend := &stubBackend{blobs: map[string]string{
		"empty":   `{"bdo":{"title":"Empty","links":[]}}`,
		"absent":  `{"bdo":{"title":"Absent"}}`,
		"garbage": `not json`,
	}}
	r := newResolver(backend, index.NewReverseIndex(10))

	for emoji := range backend.blobs {
		t.Run(emoji, func(t *testing.T) {
			page, err := r.ResolveByEmoji(context.Background(), emoji)
			require.NoError(t, err)
			assert.True(t, page.Demo)
			assert.Equal(t, catalog.Default().DemoLinks(), page.Links)
		})
	}
}

func TestResolveByEmojiErrors(t *testing.T) {
	r := newResolver(&stubBackend{}, index.NewReverseIndex(10))

	_, err := r.ResolveByEmoji(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))

	_, err = r.ResolveByEmoji(context.Background(), " ")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	failing := newResolver(&stubBackend{err: domain.Upstream(errors.New("down"), "storage backend unreachable")}, index.NewReverseIndex(10))
	_, err = failing.ResolveByEmoji(context.Background(), "any")
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestResolveByPrefix(t *testing.T) {
	idx := index.NewReverseIndex(100)
	backend := &stubBackend{blobs: map[string]string{}}

	keys := []string{
		"02a1b2c3d4e5f6a7b8c9",
		"0399887766554433aabb",
		"02ffeeddccbbaa998877",
	}
	for i, k := range keys {
		emoji := fmt.Sprintf("emoji-%d", i)
		idx.Register(domain.ReverseIndexEntry{PubKey: k, EmojiID: emoji})
		backend.blobs[emoji] = fmt.Sprintf(`{"bdo":{"title":"Page %d","links":[{"title":"t","url":"https://%d"}]}}`, i, i)
	}

	r := newResolver(backend, idx)

	for i, k := range keys {
		page, err := r.ResolveByPrefix(context.Background(), k[:8])
		require.NoError(t, err)
		assert.Equal(t, k, page.PubKey)
		assert.Equal(t, fmt.Sprintf("Page %d", i), page.Title)
	}

	page, err := r.ResolveByPrefix(context.Background(), "02A1B2C3D4")
	require.NoError(t, err, "prefixes are matched case-insensitively")
	assert.Equal(t, keys[0], page.PubKey)
}

func TestResolveByPrefixErrors(t *testing.T) {
	idx := index.NewReverseIndex(10)
	idx.Register(domain.ReverseIndexEntry{PubKey: "02a1b2c3d4e5f6", EmojiID: "gone"})
	r := newResolver(&stubBackend{blobs: map[string]string{}}, idx)

	_, err := r.ResolveByPrefix(context.Background(), "02a1")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err), "short prefixes are rejected")

	_, err = r.ResolveByPrefix(context.Background(), "0300000000")
	assert.True(t, domain.IsNotFound(err))

	_, err = r.ResolveByPrefix(context.Background(), "02a1b2c3d4")
	assert.True(t, domain.IsNotFound(err), "indexed but missing from the backend")
}
