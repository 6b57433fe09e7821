package conversation

import (
	"context"
	"database/sql"
	"time"

	"roost/internal/adapters/storage"
	domain "roost/internal/domain/conversation"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const convColumns = `id, listing_id, starter_id, recipient_id, last_message_at, created_at`

// GetByID retrieves a Conversation by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+convColumns+` FROM conversation WHERE id = ?`, id)
	return scanConversation(row)
}

// Save persists a Conversation to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, c domain.Conversation) error {
	lo, hi := domain.PairKey(c.StarterID, c.RecipientID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation (id, listing_id, starter_id, recipient_id, pair_lo, pair_hi, last_message_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   listing_id=excluded.listing_id, starter_id=excluded.starter_id,
		   recipient_id=excluded.recipient_id, pair_lo=excluded.pair_lo,
		   pair_hi=excluded.pair_hi, last_message_at=excluded.last_message_at,
		   created_at=excluded.created_at`,
		c.ID, nullStr(c.ListingID), c.StarterID, c.RecipientID, lo, hi,
		nullTime(c.LastMessageAt), c.CreatedAt.Format(timeLayout))
	return err
}

// FindDirect returns the direct conversation between two users.
// PRE: userA and userB are non-empty and distinct
// POST: Returns the conversation or sql.ErrNoRows
func (s *SQLiteStore) FindDirect(ctx context.Context, userA, userB string) (domain.Conversation, error) {
	lo, hi := domain.PairKey(userA, userB)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+convColumns+` FROM conversation
		 WHERE listing_id IS NULL AND pair_lo = ? AND pair_hi = ?`, lo, hi)
	return scanConversation(row)
}

// CreateDirect inserts a direct conversation if none exists for the pair.
// A concurrent insert for the same pair loses against the partial unique
// index and is silently ignored; the caller re-finds to get the winner.
// PRE: entity has been validated and has no listing ID
// POST: Exactly one direct conversation exists for the pair
func (s *SQLiteStore) CreateDirect(ctx context.Context, c domain.Conversation) error {
	lo, hi := domain.PairKey(c.StarterID, c.RecipientID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation (id, listing_id, starter_id, recipient_id, pair_lo, pair_hi, last_message_at, created_at)
		 VALUES (?, NULL, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		c.ID, c.StarterID, c.RecipientID, lo, hi,
		nullTime(c.LastMessageAt), c.CreatedAt.Format(timeLayout))
	return err
}

// ListByParticipant retrieves conversations involving a user, most recently
// active first.
// PRE: userID is non-empty
// POST: Returns matching conversations
func (s *SQLiteStore) ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+convColumns+` FROM conversation
		 WHERE starter_id = ? OR recipient_id = ?
		 ORDER BY COALESCE(last_message_at, created_at) DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		c, err := scanConversationRows(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// SaveMessage persists a Message to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) SaveMessage(ctx context.Context, m domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conv_message (id, conversation_id, sender_id, content, read_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   conversation_id=excluded.conversation_id, sender_id=excluded.sender_id,
		   content=excluded.content, read_at=excluded.read_at,
		   created_at=excluded.created_at`,
		m.ID, m.ConversationID, m.SenderID, m.Content, nullTime(m.ReadAt), m.CreatedAt.Format(timeLayout))
	return err
}

// ListMessages retrieves messages for a conversation, oldest first.
// PRE: conversationID is non-empty; limit > 0
// POST: Returns at most limit messages
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, content, read_at, created_at
		 FROM conv_message WHERE conversation_id = ? ORDER BY created_at, id LIMIT ?`,
		conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var readAt sql.NullString
		var createdAt string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &readAt, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		if readAt.Valid {
			m.ReadAt, _ = time.Parse(timeLayout, readAt.String)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// TouchLastMessage updates the conversation's last-activity timestamp.
// PRE: conversationID is non-empty
// POST: last_message_at is set to at
func (s *SQLiteStore) TouchLastMessage(ctx context.Context, conversationID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversation SET last_message_at = ? WHERE id = ?`,
		at.Format(timeLayout), conversationID)
	return err
}

func scanConversation(row *sql.Row) (domain.Conversation, error) {
	var c domain.Conversation
	var listingID, lastMessageAt sql.NullString
	var createdAt string
	err := row.Scan(&c.ID, &listingID, &c.StarterID, &c.RecipientID, &lastMessageAt, &createdAt)
	if err != nil {
		return domain.Conversation{}, err
	}
	populateConversation(&c, listingID, lastMessageAt, createdAt)
	return c, nil
}

func scanConversationRows(rows *sql.Rows) (domain.Conversation, error) {
	var c domain.Conversation
	var listingID, lastMessageAt sql.NullString
	var createdAt string
	err := rows.Scan(&c.ID, &listingID, &c.StarterID, &c.RecipientID, &lastMessageAt, &createdAt)
	if err != nil {
		return domain.Conversation{}, err
	}
	populateConversation(&c, listingID, lastMessageAt, createdAt)
	return c, nil
}

func populateConversation(c *domain.Conversation, listingID, lastMessageAt sql.NullString, createdAt string) {
	c.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if listingID.Valid {
		c.ListingID = listingID.String
	}
	if lastMessageAt.Valid {
		c.LastMessageAt, _ = time.Parse(timeLayout, lastMessageAt.String)
	}
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeLayout)
}
