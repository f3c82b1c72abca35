package domain

import "time"

// HandoffState is the lifecycle position of a pending cross-device purchase.
// Transitions only move forward.
type HandoffState string

const (
	HandoffCreated        HandoffState = "created"
	HandoffSequenceSolved HandoffState = "sequence_solved"
	HandoffAppBound       HandoffState = "app_bound"
	HandoffCompleted      HandoffState = "completed"
	HandoffExpired        HandoffState = "expired"
)

// Handoff is a pending purchase started on the web and finished by the
// companion app. The handoff owns DocumentKeys until completion.
type Handoff struct {
	Token             string            `json:"token"`
	Sequence          []string          `json:"sequence"`
	SequenceCompleted bool              `json:"sequenceCompleted"`
	Attempts          int               `json:"attempts"`
	Draft             Document          `json:"draft"`
	DocumentKeys      Keys              `json:"documentKeys"`
	DocumentID        string            `json:"documentId,omitempty"` // set once the draft is stored, before it is public
	Related           RelatedReferences `json:"related"`
	ProductKind       string            `json:"productKind"`
	WebPrice          int64             `json:"webPrice"`
	AppPrice          int64             `json:"appPrice"`
	BoundAppPubKey    string            `json:"boundAppPubKey,omitempty"`
	BoundAppIdentity  string            `json:"boundAppIdentity,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	ExpiresAt         time.Time         `json:"expiresAt"`
	CompletedAt       *time.Time        `json:"completedAt,omitempty"`
	Result            *PublishResult    `json:"result,omitempty"`
}

// Expired reports whether the handoff is past its expiry at now.
func (h *Handoff) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// State derives the lifecycle state from the record's fields.
func (h *Handoff) State(now time.Time) HandoffState {
	switch {
	case h.CompletedAt != nil:
		return HandoffCompleted
	case h.Expired(now):
		return HandoffExpired
	case h.BoundAppPubKey != "":
		return HandoffAppBound
	case h.SequenceCompleted:
		return HandoffSequenceSolved
	default:
		return HandoffCreated
	}
}

// Discount is what the app price saves over the web price.
func (h *Handoff) Discount() int64 {
	if d := h.WebPrice - h.AppPrice; d > 0 {
		return d
	}
	return 0
}

// Clone returns a deep copy so store readers never share mutable state.
func (h *Handoff) Clone() *Handoff {
	if h == nil {
		return nil
	}
	c := *h
	c.Sequence = append([]string(nil), h.Sequence...)
	c.Draft.Links = append([]LinkRecord(nil), h.Draft.Links...)
	c.Related.EmojiIDs = append([]string(nil), h.Related.EmojiIDs...)
	c.Related.PubKeys = append([]string(nil), h.Related.PubKeys...)
	if h.CompletedAt != nil {
		t := *h.CompletedAt
		c.CompletedAt = &t
	}
	if h.Result != nil {
		r := *h.Result
		c.Result = &r
	}
	return &c
}
