package conversation

import (
	"context"
	"time"

	domain "roost/internal/domain/conversation"
)

// Store persists Conversation and Message state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Conversation, error)
	Save(ctx context.Context, value domain.Conversation) error

	// FindDirect returns the direct (no-listing) conversation between two
	// users regardless of who started it, or sql.ErrNoRows.
	FindDirect(ctx context.Context, userA, userB string) (domain.Conversation, error)

	// CreateDirect inserts a direct conversation, ignoring the insert if one
	// already exists for the participant pair. Callers should FindDirect
	// afterwards to obtain the surviving row.
	CreateDirect(ctx context.Context, value domain.Conversation) error

	ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)

	SaveMessage(ctx context.Context, value domain.Message) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)

	// TouchLastMessage updates the conversation's last-activity timestamp.
	TouchLastMessage(ctx context.Context, conversationID string, at time.Time) error
}
