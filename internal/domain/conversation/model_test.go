package conversation

import (
	"testing"
	"time"
)

var testTime = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

// TestConversationValidate tests participant invariants.
func TestConversationValidate(t *testing.T) {
	c := Conversation{ID: "c1", StarterID: "admin-1", RecipientID: "u1", CreatedAt: testTime}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.RecipientID = "admin-1"
	if err := c.Validate(); err != ErrSameParticipants {
		t.Errorf("expected ErrSameParticipants, got %v", err)
	}

	c = Conversation{ID: "c1", RecipientID: "u1", CreatedAt: testTime}
	if err := c.Validate(); err != ErrEmptyStarterID {
		t.Errorf("expected ErrEmptyStarterID, got %v", err)
	}
}

// TestIsDirect tests the listing/direct distinction.
func TestIsDirect(t *testing.T) {
	c := Conversation{ID: "c1", StarterID: "a", RecipientID: "b", CreatedAt: testTime}
	if !c.IsDirect() {
		t.Error("conversation without listing must be direct")
	}
	c.ListingID = "l1"
	if c.IsDirect() {
		t.Error("conversation with listing must not be direct")
	}
}

// TestHasParticipant tests participant membership.
func TestHasParticipant(t *testing.T) {
	c := Conversation{StarterID: "a", RecipientID: "b"}
	if !c.HasParticipant("a") || !c.HasParticipant("b") {
		t.Error("both participants must match")
	}
	if c.HasParticipant("c") {
		t.Error("non-participant must not match")
	}
}

// TestPairKey tests that the canonical key is order-independent.
func TestPairKey(t *testing.T) {
	lo1, hi1 := PairKey("admin-1", "u1")
	lo2, hi2 := PairKey("u1", "admin-1")
	if lo1 != lo2 || hi1 != hi2 {
		t.Errorf("pair key must be order-independent: (%s,%s) vs (%s,%s)", lo1, hi1, lo2, hi2)
	}
	if lo1 > hi1 {
		t.Error("lo must sort before hi")
	}
}

// TestMessageValidate tests message invariants.
func TestMessageValidate(t *testing.T) {
	m := Message{ID: "m1", ConversationID: "c1", SenderID: "admin-1", Content: "hello", CreatedAt: testTime}
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Content = ""
	if err := m.Validate(); err != ErrEmptyContent {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}

	m.Content = "hello"
	m.SenderID = ""
	if err := m.Validate(); err != ErrEmptySenderID {
		t.Errorf("expected ErrEmptySenderID, got %v", err)
	}
}
