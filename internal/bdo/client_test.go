package bdo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/sessionless"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", "linkitylink", 2*time.Second, logger.New("error", false))
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func TestClientCreateSignsRequest(t *testing.T) {
	keys, err := sessionless.GenerateKeys()
	require.NoError(t, err)

	var got writeRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/user/create", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"uuid":"doc-1"}`))
	}))

	id, err := c.Create(context.Background(), keys, map[string]string{"title": "x"})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)

	assert.Equal(t, "1700000000000", got.Timestamp)
	assert.Equal(t, keys.PublicKey, got.PubKey)
	assert.Equal(t, "linkitylink", got.Hash)
	assert.True(t, sessionless.Verify(got.Signature, got.Timestamp+keys.PublicKey+got.Hash, keys.PublicKey))
}

func TestClientPublishReturnsEmoji(t *testing.T) {
	keys, err := sessionless.GenerateKeys()
	require.NoError(t, err)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/doc-1/bdo", r.URL.Path)
		var req writeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Public)
		assert.True(t, sessionless.Verify(req.Signature, req.Timestamp+"doc-1"+req.Hash, keys.PublicKey))
		_, _ = w.Write([]byte(`{"uuid":"doc-1","emojiShortcode":"🌍🔑💎🌟"}`))
	}))

	emoji, err := c.Publish(context.Background(), keys, "doc-1", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "🌍🔑💎🌟", emoji)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   domain.Kind
	}{
		{name: "not found", status: http.StatusNotFound, body: `{}`, kind: domain.KindNotFound},
		{name: "server error", status: http.StatusInternalServerError, body: `{}`, kind: domain.KindUpstream},
		{name: "garbage body", status: http.StatusOK, body: `not json`, kind: domain.KindUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := c.GetByEmoji(context.Background(), "🌍")
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(srv.URL, "linkitylink", time.Second, logger.New("error", false))
	_, err := c.GetByPubKey(context.Background(), "02ab")
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestClientGetReturnsRawBlob(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pubkey/02ab", r.URL.Path)
		_, _ = w.Write([]byte(`{"bdo":{"links":[{"title":"a","url":"https://a"}]}}`))
	}))

	raw, err := c.GetByPubKey(context.Background(), "02ab")
	require.NoError(t, err)

	blob, err := domain.NormalizeBlob(raw)
	require.NoError(t, err)
	assert.Len(t, blob.Links, 1)
}
