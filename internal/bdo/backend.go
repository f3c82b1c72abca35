// Package bdo talks to the storage backend that persists link-page blobs
// and assigns them public emoji identifiers.
package bdo

import (
	"context"

	"github.com/planet-nine-app/linkitylink/internal/domain"
)

// Backend is the storage backend. Blobs are opaque JSON values; reads
// return the raw bytes for domain.NormalizeBlob.
//
// Lookups of unknown identifiers fail with a domain NotFound error, and
// transport or backend failures with an Upstream error.
type Backend interface {
	// Create stores blob under a new document owned by keys and returns its uuid.
	Create(ctx context.Context, keys domain.Keys, blob any) (string, error)
	// Update replaces the blob of an existing document.
	Update(ctx context.Context, keys domain.Keys, uuid string, blob any) error
	// Publish makes the document public and returns its emoji identifier.
	Publish(ctx context.Context, keys domain.Keys, uuid string, blob any) (string, error)

	GetByEmoji(ctx context.Context, emojiID string) ([]byte, error)
	GetByPubKey(ctx context.Context, pubKey string) ([]byte, error)
}
