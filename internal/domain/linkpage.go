package domain

import "time"

const (
	// DocumentType tags every stored link page.
	DocumentType = "linkpage"
	// MaxLinks is the most links a single page accepts; callers truncate beyond it.
	MaxLinks = 20
)

// LinkRecord is one entry of a link page. Social links render as icon
// badges in the footer band, regular links as full cards.
type LinkRecord struct {
	Title    string `json:"title" yaml:"title"`
	URL      string `json:"url" yaml:"url"`
	IsSocial bool   `json:"isSocial,omitempty" yaml:"isSocial"`
}

// Document is the blob persisted to the storage backend.
//
// SVGContent is derived from Links once, at creation, and never recomputed.
type Document struct {
	Title      string       `json:"title"`
	Type       string       `json:"type"`
	SVGContent string       `json:"svgContent"`
	Links      []LinkRecord `json:"links"`
	Source     string       `json:"source,omitempty"`
	SourceURL  string       `json:"sourceUrl,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	Status     string       `json:"status,omitempty"`
}

// TruncateLinks returns at most MaxLinks links, preserving order.
func TruncateLinks(links []LinkRecord) []LinkRecord {
	if len(links) <= MaxLinks {
		return links
	}
	return links[:MaxLinks]
}

// SplitLinks partitions links into regular cards and social badges, keeping order.
func SplitLinks(links []LinkRecord) (regular, social []LinkRecord) {
	for _, l := range links {
		if l.IsSocial {
			social = append(social, l)
		} else {
			regular = append(regular, l)
		}
	}
	return regular, social
}

// Keys is a signing identity. The public half of a document's keys is the
// document's permanent identifier.
type Keys struct {
	PublicKey  string `json:"pubKey"`
	PrivateKey string `json:"privateKey"`
}

// PublishResult identifies a document after the create+publish pipeline.
type PublishResult struct {
	DocumentID string `json:"documentId"`
	PubKey     string `json:"pubKey"`
	EmojiID    string `json:"emojicode"`
}

// ReverseIndexEntry maps a document's full public key to its emoji identifier.
type ReverseIndexEntry struct {
	PubKey    string    `json:"-"`
	EmojiID   string    `json:"emojicode"`
	CreatedAt time.Time `json:"createdAt"`
}
