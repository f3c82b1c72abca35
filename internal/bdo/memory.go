package bdo

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/planet-nine-app/linkitylink/internal/domain"
)

// emojiAlphabet is what the in-process backend draws identifiers from.
var emojiAlphabet = []string{
	"🌍", "🔑", "💎", "🌟", "🎨", "🎵", "🚀", "🌈",
	"🍀", "🔥", "🌊", "🍕", "🎉", "🦄", "🐙", "🌵",
	"⚡", "🎯", "🧩", "🪐", "🍉", "🐝", "🎲", "🔮",
}

const emojiIDLength = 8

type memoryDoc struct {
	owner   string
	blob    json.RawMessage
	emojiID string
}

// MemoryBackend keeps documents in process. It backs development mode
// (LINKITYLINK_BDO_URL=memory://) and tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	docs    map[string]*memoryDoc // uuid -> document
	byEmoji map[string]string     // emoji id -> uuid
	byOwner map[string]string     // pubKey -> uuid
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs:    make(map[string]*memoryDoc),
		byEmoji: make(map[string]string),
		byOwner: make(map[string]string),
	}
}

func (m *MemoryBackend) Create(_ context.Context, keys domain.Keys, blob any) (string, error) {
	if keys.PublicKey == "" {
		return "", domain.Validation("missing public key")
	}
	raw, err := json.Marshal(blob)
	if err != nil {
		return "", fmt.Errorf("failed to encode blob: %w", err)
	}

	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[id] = &memoryDoc{owner: keys.PublicKey, blob: raw}
	m.byOwner[keys.PublicKey] = id
	return id, nil
}

func (m *MemoryBackend) Update(_ context.Context, keys domain.Keys, id string, blob any) error {
	raw, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to encode blob: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.ownedLocked(keys, id)
	if err != nil {
		return err
	}
	doc.blob = raw
	return nil
}

func (m *MemoryBackend) Publish(_ context.Context, keys domain.Keys, id string, blob any) (string, error) {
	raw, err := json.Marshal(blob)
	if err != nil {
		return "", fmt.Errorf("failed to encode blob: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.ownedLocked(keys, id)
	if err != nil {
		return "", err
	}
	doc.blob = raw
	if doc.emojiID != "" {
		return doc.emojiID, nil
	}

	for {
		emojiID, err := randomEmojiID()
		if err != nil {
			return "", err
		}
		if _, taken := m.byEmoji[emojiID]; taken {
			continue
		}
		doc.emojiID = emojiID
		m.byEmoji[emojiID] = id
		return emojiID, nil
	}
}

func (m *MemoryBackend) GetByEmoji(_ context.Context, emojiID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmoji[emojiID]
	if !ok {
		return nil, domain.NotFound("no document for emoji identifier")
	}
	return m.envelopeLocked(id)
}

func (m *MemoryBackend) GetByPubKey(_ context.Context, pubKey string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byOwner[pubKey]
	if !ok {
		return nil, domain.NotFound("no document for public key")
	}
	return m.envelopeLocked(id)
}

// Count returns the number of stored documents.
func (m *MemoryBackend) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.docs)
}

func (m *MemoryBackend) ownedLocked(keys domain.Keys, id string) (*memoryDoc, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.NotFound("unknown document %s", id)
	}
	if doc.owner != keys.PublicKey {
		return nil, domain.Unauthorized("document %s is owned by another key", id)
	}
	return doc, nil
}

// envelopeLocked wraps the blob the way the remote backend does.
func (m *MemoryBackend) envelopeLocked(id string) ([]byte, error) {
	doc := m.docs[id]
	return json.Marshal(struct {
		UUID string          `json:"uuid"`
		BDO  json.RawMessage `json:"bdo"`
	}{UUID: id, BDO: doc.blob})
}

func randomEmojiID() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(emojiAlphabet)))
	for i := 0; i < emojiIDLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to draw emoji: %w", err)
		}
		b.WriteString(emojiAlphabet[n.Int64()])
	}
	return b.String(), nil
}
