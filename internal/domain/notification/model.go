package notification

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrEmptyUserID  = errors.New("user ID is required")
	ErrEmptyTitle   = errors.New("notification title cannot be empty")
	ErrEmptyMessage = errors.New("notification message cannot be empty")
)

// Notification represents one in-app notification row for a user. Created
// unread; read state is recorded when the user opens it.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	ReadAt    time.Time
	CreatedAt time.Time
}

// Validate checks if the Notification has valid data.
// PRE: Notification struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notification) Validate() error {
	if n.UserID == "" {
		return ErrEmptyUserID
	}
	if n.Title == "" {
		return ErrEmptyTitle
	}
	if n.Message == "" {
		return ErrEmptyMessage
	}
	if n.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// IsRead returns true if the notification has been read.
// INVARIANT: ReadAt field is not mutated
func (n *Notification) IsRead() bool {
	return !n.ReadAt.IsZero()
}

// MarkRead records when the notification was read.
// PRE: Notification exists
// POST: ReadAt is set if previously zero
func (n *Notification) MarkRead(now time.Time) {
	if n.ReadAt.IsZero() {
		n.ReadAt = now
	}
}
