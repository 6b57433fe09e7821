package notification

import (
	"context"
	"database/sql"
	"time"

	"roost/internal/adapters/storage"
	domain "roost/internal/domain/notification"
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

// GetByID retrieves a Notification by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Notification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, message, read_at, created_at
		 FROM notification WHERE id = ?`, id)
	return scanNotification(row)
}

// Save persists a Notification to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, n domain.Notification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification (id, user_id, title, message, read_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_id=excluded.user_id, title=excluded.title,
		   message=excluded.message, read_at=excluded.read_at,
		   created_at=excluded.created_at`,
		n.ID, n.UserID, n.Title, n.Message, nullTime(n.ReadAt), n.CreatedAt.Format(timeLayout))
	return err
}

// Delete removes a Notification from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notification WHERE id = ?`, id)
	return err
}

// ListByUserID retrieves the newest notifications for a user.
// PRE: userID is non-empty; limit > 0
// POST: Returns at most limit notifications, newest first
func (s *SQLiteStore) ListByUserID(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, message, read_at, created_at
		 FROM notification WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var readAt sql.NullString
		var createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &readAt, &createdAt); err != nil {
			return nil, err
		}
		n.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		if readAt.Valid {
			n.ReadAt, _ = time.Parse(timeLayout, readAt.String)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnread counts unread notifications for a user.
// PRE: userID is non-empty
// POST: Returns count of unread notifications
func (s *SQLiteStore) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification WHERE user_id = ? AND read_at IS NULL`, userID).Scan(&count)
	return count, err
}

func scanNotification(row *sql.Row) (domain.Notification, error) {
	var n domain.Notification
	var readAt sql.NullString
	var createdAt string
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &readAt, &createdAt)
	if err != nil {
		return domain.Notification{}, err
	}
	n.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if readAt.Valid {
		n.ReadAt, _ = time.Parse(timeLayout, readAt.String)
	}
	return n, nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeLayout)
}
