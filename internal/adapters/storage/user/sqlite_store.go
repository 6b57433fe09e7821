package user

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"roost/internal/adapters/storage"
	"roost/internal/application/listutil"
	domain "roost/internal/domain/user"
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

const userColumns = `id, email, display_name, role, status, password_hash, created_at, failed_logins, locked_until`

// GetByID retrieves a User by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM user WHERE id = ?`, id)
	return scanUser(row)
}

// GetByEmail retrieves a User by email address.
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM user WHERE email = ?`, email)
	return scanUser(row)
}

// Save persists a User to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, u domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user (id, email, display_name, role, status, password_hash, created_at, failed_logins, locked_until)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   email=excluded.email, display_name=excluded.display_name,
		   role=excluded.role, status=excluded.status,
		   password_hash=excluded.password_hash, created_at=excluded.created_at,
		   failed_logins=excluded.failed_logins, locked_until=excluded.locked_until`,
		u.ID, nullStr(u.Email), nullStr(u.DisplayName), u.Role, u.Status,
		u.PasswordHash, u.CreatedAt.Format(timeLayout), u.FailedLogins, nullTime(u.LockedUntil))
	return err
}

// Delete removes a User from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user WHERE id = ?`, id)
	return err
}

// ListAll retrieves every user in creation order.
// POST: Returns all users
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM user ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListByRole retrieves users with the given role.
// PRE: role is non-empty
// POST: Returns matching users in creation order
func (s *SQLiteStore) ListByRole(ctx context.Context, role string) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM user WHERE role = ? ORDER BY created_at, id`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListByIDs retrieves users whose ID is in the given list. IDs that match no
// row are silently absent from the result.
// PRE: ids is non-empty
// POST: Returns matching users in creation order
func (s *SQLiteStore) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM user WHERE id IN (`+placeholders+`) ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListPage returns one page of users plus the total matching count.
// Supports a role filter and free-text search over email and display name.
// PRE: params has been parsed with listutil defaults applied
// POST: Returns at most PerPage rows and the unpaginated total
func (s *SQLiteStore) ListPage(ctx context.Context, params listutil.ListParams) ([]domain.User, int, error) {
	where := " WHERE 1=1"
	var args []any
	if role := params.Filters["role"]; role != "" {
		where += " AND role = ?"
		args = append(args, role)
	}
	if params.Search != "" {
		where += " AND (email LIKE ? OR display_name LIKE ?)"
		like := "%" + params.Search + "%"
		args = append(args, like, like)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM user`+where+` ORDER BY created_at, id LIMIT ? OFFSET ?`,
		append(args, info.PerPage, info.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	users, err := scanUsers(rows)
	return users, total, err
}

// Count returns the total number of users.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user`).Scan(&count)
	return count, err
}

// CountByRole returns the number of users with the given role.
// PRE: role is non-empty
func (s *SQLiteStore) CountByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user WHERE role = ?`, role).Scan(&count)
	return count, err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var email, displayName, lockedUntil sql.NullString
	var createdAt string
	err := row.Scan(&u.ID, &email, &displayName, &u.Role, &u.Status, &u.PasswordHash, &createdAt, &u.FailedLogins, &lockedUntil)
	if err != nil {
		return domain.User{}, err
	}
	populateUser(&u, email, displayName, lockedUntil, createdAt)
	return u, nil
}

func scanUsers(rows *sql.Rows) ([]domain.User, error) {
	var users []domain.User
	for rows.Next() {
		var u domain.User
		var email, displayName, lockedUntil sql.NullString
		var createdAt string
		err := rows.Scan(&u.ID, &email, &displayName, &u.Role, &u.Status, &u.PasswordHash, &createdAt, &u.FailedLogins, &lockedUntil)
		if err != nil {
			return nil, err
		}
		populateUser(&u, email, displayName, lockedUntil, createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

func populateUser(u *domain.User, email, displayName, lockedUntil sql.NullString, createdAt string) {
	u.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if email.Valid {
		u.Email = email.String
	}
	if displayName.Valid {
		u.DisplayName = displayName.String
	}
	if lockedUntil.Valid {
		u.LockedUntil, _ = time.Parse(timeLayout, lockedUntil.String)
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
