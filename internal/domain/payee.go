package domain

import "encoding/json"

// Payee is a revenue split recipient declared by a referenced document.
type Payee struct {
	PubKey    string  `json:"pubKey,omitempty"`
	UUID      string  `json:"uuid,omitempty"`
	Amount    int64   `json:"amount,omitempty"`
	Percent   float64 `json:"percent,omitempty"`
	Signature string  `json:"signature,omitempty"`
}

// DedupKey identifies a payee across documents: pubKey first, then uuid,
// then the payee's full serialized form.
func (p Payee) DedupKey() string {
	if p.PubKey != "" {
		return "pubKey:" + p.PubKey
	}
	if p.UUID != "" {
		return "uuid:" + p.UUID
	}
	b, _ := json.Marshal(p)
	return "raw:" + string(b)
}

// RelatedReferences names the documents whose payees share in a purchase.
type RelatedReferences struct {
	EmojiIDs []string `json:"emojicodes,omitempty"`
	PubKeys  []string `json:"pubKeys,omitempty"`
}

// Empty reports whether no references were supplied.
func (r RelatedReferences) Empty() bool {
	return len(r.EmojiIDs) == 0 && len(r.PubKeys) == 0
}
