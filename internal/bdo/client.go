package bdo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/sessionless"
	"github.com/planet-nine-app/linkitylink/internal/utils"
)

const maxResponseBytes = 4 << 20

// Client is the HTTP Backend. Every write is signed with the document's
// keys over timestamp, identity and app hash.
type Client struct {
	baseURL string
	appHash string
	http    *http.Client
	log     logger.Logger
	now     func() time.Time
}

// NewClient returns a client for the backend at baseURL.
func NewClient(baseURL, appHash string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appHash: appHash,
		http:    &http.Client{Timeout: timeout},
		log:     log,
		now:     time.Now,
	}
}

type writeRequest struct {
	Timestamp string `json:"timestamp"`
	PubKey    string `json:"pubKey"`
	Hash      string `json:"hash"`
	BDO       any    `json:"bdo"`
	Public    bool   `json:"public,omitempty"`
	Signature string `json:"signature"`
}

type writeResponse struct {
	UUID           string `json:"uuid"`
	EmojiShortcode string `json:"emojiShortcode"`
	Error          string `json:"error"`
}

func (c *Client) timestamp() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10)
}

func (c *Client) Create(ctx context.Context, keys domain.Keys, blob any) (string, error) {
	ts := c.timestamp()
	sig, err := sessionless.Sign(keys.PrivateKey, ts+keys.PublicKey+c.appHash)
	if err != nil {
		return "", fmt.Errorf("failed to sign create request: %w", err)
	}

	var resp writeResponse
	err = c.do(ctx, http.MethodPut, "/user/create", writeRequest{
		Timestamp: ts,
		PubKey:    keys.PublicKey,
		Hash:      c.appHash,
		BDO:       blob,
		Signature: sig,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.UUID == "" {
		return "", domain.Upstream(nil, "storage backend returned no uuid")
	}
	return resp.UUID, nil
}

func (c *Client) Update(ctx context.Context, keys domain.Keys, uuid string, blob any) error {
	_, err := c.put(ctx, keys, uuid, blob, false)
	return err
}

func (c *Client) Publish(ctx context.Context, keys domain.Keys, uuid string, blob any) (string, error) {
	resp, err := c.put(ctx, keys, uuid, blob, true)
	if err != nil {
		return "", err
	}
	if resp.EmojiShortcode == "" {
		return "", domain.Upstream(nil, "storage backend returned no emoji identifier")
	}
	return resp.EmojiShortcode, nil
}

func (c *Client) put(ctx context.Context, keys domain.Keys, uuid string, blob any, public bool) (writeResponse, error) {
	ts := c.timestamp()
	sig, err := sessionless.Sign(keys.PrivateKey, ts+uuid+c.appHash)
	if err != nil {
		return writeResponse{}, fmt.Errorf("failed to sign update request: %w", err)
	}

	var resp writeResponse
	err = c.do(ctx, http.MethodPut, "/user/"+url.PathEscape(uuid)+"/bdo", writeRequest{
		Timestamp: ts,
		PubKey:    keys.PublicKey,
		Hash:      c.appHash,
		BDO:       blob,
		Public:    public,
		Signature: sig,
	}, &resp)
	return resp, err
}

func (c *Client) GetByEmoji(ctx context.Context, emojiID string) ([]byte, error) {
	return c.get(ctx, "/emoji/"+url.PathEscape(emojiID), "no document for emoji identifier")
}

func (c *Client) GetByPubKey(ctx context.Context, pubKey string) ([]byte, error) {
	return c.get(ctx, "/pubkey/"+url.PathEscape(pubKey), "no document for public key")
}

func (c *Client) get(ctx context.Context, path, notFound string) ([]byte, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NotFound("%s", notFound)
		}
		return nil, err
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("storage backend unreachable",
			logger.String("method", method),
			logger.String("path", path),
			logger.Error(err),
		)
		return domain.Upstream(err, "storage backend unreachable")
	}
	defer utils.DrainClose(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Upstream(err, "failed to read storage backend response")
	}

	c.log.Debug("storage backend call",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NotFound("storage backend: not found")
	case resp.StatusCode >= 300:
		c.log.Warn("storage backend error",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", resp.StatusCode),
		)
		return domain.Upstream(nil, "storage backend returned status %d", resp.StatusCode)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.Upstream(err, "failed to decode storage backend response")
	}
	return nil
}
