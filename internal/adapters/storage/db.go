package storage

import (
	"database/sql"
	"fmt"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS user (
		id TEXT PRIMARY KEY,
		email TEXT,
		display_name TEXT,
		role TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_user_role ON user(role);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_user_email ON user(email) WHERE email IS NOT NULL;

	CREATE TABLE IF NOT EXISTS notification (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		read_at TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES user(id)
	);

	CREATE INDEX IF NOT EXISTS idx_notification_user ON notification(user_id, created_at);

	CREATE TABLE IF NOT EXISTS conversation (
		id TEXT PRIMARY KEY,
		listing_id TEXT,
		starter_id TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		pair_lo TEXT NOT NULL,
		pair_hi TEXT NOT NULL,
		last_message_at TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (starter_id) REFERENCES user(id),
		FOREIGN KEY (recipient_id) REFERENCES user(id)
	);

	CREATE TABLE IF NOT EXISTS conv_message (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		content TEXT NOT NULL,
		read_at TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversation(id),
		FOREIGN KEY (sender_id) REFERENCES user(id)
	);

	CREATE INDEX IF NOT EXISTS idx_conv_message_conversation ON conv_message(conversation_id, created_at);

	CREATE TABLE IF NOT EXISTS audit_event (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		severity TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		actor_email TEXT,
		description TEXT,
		ip_address TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_event_timestamp ON audit_event(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// One direct (no-listing) conversation per participant pair. The pair
	// columns hold the canonical ordering of the two participant IDs, so
	// the constraint holds regardless of who started the thread. This is
	// what makes find-or-create safe under concurrent broadcasts.
	uniqueDirect := `CREATE UNIQUE INDEX IF NOT EXISTS idx_conversation_direct
		ON conversation(pair_lo, pair_hi) WHERE listing_id IS NULL`
	if _, err := db.Exec(uniqueDirect); err != nil {
		return fmt.Errorf("failed to create direct conversation index: %w", err)
	}

	return nil
}
