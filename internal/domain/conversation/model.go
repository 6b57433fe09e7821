package conversation

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrEmptyStarterID   = errors.New("starter ID is required")
	ErrEmptyRecipientID = errors.New("recipient ID is required")
	ErrSameParticipants = errors.New("a conversation needs two distinct participants")
	ErrEmptyContent     = errors.New("message content cannot be empty")
	ErrEmptySenderID    = errors.New("message sender ID is required")
	ErrNotParticipant   = errors.New("sender is not a participant of this conversation")
)

// Conversation represents a thread between two users. When ListingID is set
// the thread belongs to a listing enquiry; when empty it is a direct thread
// (admin broadcasts use direct threads).
type Conversation struct {
	ID            string
	ListingID     string // empty = direct conversation
	StarterID     string
	RecipientID   string
	LastMessageAt time.Time
	CreatedAt     time.Time
}

// Message is one message inside a conversation.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	ReadAt         time.Time
	CreatedAt      time.Time
}

// Validate checks if the Conversation has valid data.
// PRE: Conversation struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Conversation) Validate() error {
	if c.StarterID == "" {
		return ErrEmptyStarterID
	}
	if c.RecipientID == "" {
		return ErrEmptyRecipientID
	}
	if c.StarterID == c.RecipientID {
		return ErrSameParticipants
	}
	if c.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// IsDirect returns true if the conversation is not tied to a listing.
// INVARIANT: Conversation fields are not mutated
func (c *Conversation) IsDirect() bool {
	return c.ListingID == ""
}

// HasParticipant returns true if the given user is one of the two participants.
// INVARIANT: Conversation fields are not mutated
func (c *Conversation) HasParticipant(userID string) bool {
	return c.StarterID == userID || c.RecipientID == userID
}

// PairKey returns the canonical ordering of two participant IDs. Direct
// conversations are stored under this key so that a unique index catches
// duplicates regardless of who started the thread.
func PairKey(a, b string) (lo, hi string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Validate checks if the Message has valid data.
// PRE: Message struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Message) Validate() error {
	if m.ConversationID == "" {
		return errors.New("conversation ID is required")
	}
	if m.SenderID == "" {
		return ErrEmptySenderID
	}
	if m.Content == "" {
		return ErrEmptyContent
	}
	if m.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// IsRead returns true if the message has been read.
// INVARIANT: ReadAt field is not mutated
func (m *Message) IsRead() bool {
	return !m.ReadAt.IsZero()
}
