package handoff

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/text/cases"
)

// Alphabet holds the challenge symbols shown to the user.
var Alphabet = []string{"red", "blue", "green", "yellow", "purple", "orange"}

const tokenBytes = 32

// newToken returns an unguessable URL-safe bearer token.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate handoff token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// newSequence draws n symbols independently, with replacement.
func newSequence(n int) ([]string, error) {
	seq := make([]string, n)
	limit := big.NewInt(int64(len(Alphabet)))
	for i := range seq {
		k, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to generate challenge sequence: %w", err)
		}
		seq[i] = Alphabet[k.Int64()]
	}
	return seq, nil
}

// sequenceMatches compares in order, element by element, ignoring case.
func sequenceMatches(stored, submitted []string) bool {
	if len(stored) != len(submitted) {
		return false
	}
	fold := cases.Fold()
	for i := range stored {
		if fold.String(strings.TrimSpace(stored[i])) != fold.String(strings.TrimSpace(submitted[i])) {
			return false
		}
	}
	return true
}
