package audit

import (
	"context"
	"database/sql"
	"time"

	"roost/internal/adapters/storage"
	domain "roost/internal/domain/audit"
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

// Save persists an audit event. Events are append-only; there is no update.
// PRE: event has an ID and timestamp
// POST: Event is persisted
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_event (id, timestamp, category, action, severity, actor_id, actor_email, description, ip_address)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.Format(timeLayout), string(e.Category), string(e.Action),
		string(e.Severity), e.ActorID, nullStr(e.ActorEmail), nullStr(e.Description), nullStr(e.IPAddress))
	return err
}

// List returns the newest audit events.
// PRE: limit > 0
// POST: Returns events ordered by timestamp desc
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, category, action, severity, actor_id, actor_email, description, ip_address
		 FROM audit_event ORDER BY timestamp DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var timestamp string
		var actorEmail, description, ipAddress sql.NullString
		var category, action, severity string
		if err := rows.Scan(&e.ID, &timestamp, &category, &action, &severity, &e.ActorID, &actorEmail, &description, &ipAddress); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(timeLayout, timestamp)
		e.Category = domain.Category(category)
		e.Action = domain.Action(action)
		e.Severity = domain.Severity(severity)
		if actorEmail.Valid {
			e.ActorEmail = actorEmail.String
		}
		if description.Valid {
			e.Description = description.String
		}
		if ipAddress.Valid {
			e.IPAddress = ipAddress.String
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
