package domain

import (
	"errors"
	"testing"
	"time"
)

func TestHandoffState(t *testing.T) {
	now := time.Now()
	done := now.Add(-time.Minute)

	tests := []struct {
		name string
		h    Handoff
		want HandoffState
	}{
		{name: "fresh", h: Handoff{ExpiresAt: now.Add(time.Minute)}, want: HandoffCreated},
		{name: "solved", h: Handoff{SequenceCompleted: true, ExpiresAt: now.Add(time.Minute)}, want: HandoffSequenceSolved},
		{name: "bound", h: Handoff{SequenceCompleted: true, BoundAppPubKey: "02ab", ExpiresAt: now.Add(time.Minute)}, want: HandoffAppBound},
		{name: "expired before completion", h: Handoff{SequenceCompleted: true, ExpiresAt: now}, want: HandoffExpired},
		{name: "completed stays completed", h: Handoff{CompletedAt: &done, ExpiresAt: now.Add(-time.Second)}, want: HandoffCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.h.State(now); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandoffDiscount(t *testing.T) {
	h := Handoff{WebPrice: 2000, AppPrice: 1500}
	if got := h.Discount(); got != 500 {
		t.Errorf("Discount() = %d, want 500", got)
	}

	h = Handoff{WebPrice: 1000, AppPrice: 1500}
	if got := h.Discount(); got != 0 {
		t.Errorf("Discount() = %d, want 0 when app price is higher", got)
	}
}

func TestHandoffCloneIsDeep(t *testing.T) {
	h := &Handoff{
		Sequence: []string{"red", "blue"},
		Draft:    Document{Links: []LinkRecord{{Title: "A"}}},
	}

	c := h.Clone()
	c.Sequence[0] = "green"
	c.Draft.Links[0].Title = "B"

	if h.Sequence[0] != "red" {
		t.Error("Clone() shares the sequence slice")
	}
	if h.Draft.Links[0].Title != "A" {
		t.Error("Clone() shares the links slice")
	}
}

func TestErrorIs(t *testing.T) {
	sentinel := NotFound("handoff not found")
	wrapped := errors.Join(errors.New("context"), NotFound("handoff not found"))

	if !errors.Is(wrapped, sentinel) {
		t.Error("errors.Is should match errors with the same kind and message")
	}
	if errors.Is(wrapped, NotFound("other")) {
		t.Error("errors.Is should not match a different message")
	}
	if KindOf(Upstream(errors.New("boom"), "bdo down")) != KindUpstream {
		t.Error("KindOf() should report upstream")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("KindOf() should default to internal")
	}
}
