package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"roost/internal/adapters/storage"
	"roost/internal/application/listutil"
	domain "roost/internal/domain/user"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	return NewSQLiteStore(db)
}

func seedUser(t *testing.T, s *SQLiteStore, id, email, role string, createdAt time.Time) {
	t.Helper()
	u := domain.User{
		ID:          id,
		Email:       email,
		DisplayName: "User " + id,
		Role:        role,
		Status:      domain.StatusActive,
		CreatedAt:   createdAt,
	}
	if err := s.Save(context.Background(), u); err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
}

// TestUserStore_SaveAndGet tests the save/get round trip including null fields.
func TestUserStore_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	u := domain.User{
		ID:           "u-1",
		Email:        "kai@roost.nz",
		DisplayName:  "Kai",
		Role:         domain.RoleOwner,
		Status:       domain.StatusActive,
		PasswordHash: "$2a$12$hash",
		CreatedAt:    created,
		FailedLogins: 2,
	}
	if err := s.Save(ctx, u); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetByID(ctx, "u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != u.Email || got.Role != u.Role || got.FailedLogins != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at mismatch: %v", got.CreatedAt)
	}
	if !got.LockedUntil.IsZero() {
		t.Errorf("expected zero LockedUntil, got %v", got.LockedUntil)
	}

	// Upsert updates in place.
	u.DisplayName = "Kai H"
	if err := s.Save(ctx, u); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ = s.GetByID(ctx, "u-1")
	if got.DisplayName != "Kai H" {
		t.Errorf("upsert must update, got %s", got.DisplayName)
	}
}

// TestUserStore_EmptyEmailAllowed tests that users without an email can be
// stored and that more than one such user may exist.
func TestUserStore_EmptyEmailAllowed(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)
	seedUser(t, s, "u-1", "", domain.RoleRenter, now)
	seedUser(t, s, "u-2", "", domain.RoleRenter, now)

	got, err := s.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "" {
		t.Errorf("expected empty email, got %q", got.Email)
	}
}

// TestUserStore_GetByEmailMissing tests the not-found error.
func TestUserStore_GetByEmailMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetByEmail(context.Background(), "nobody@roost.nz")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

// TestUserStore_ListByRole tests role filtering and creation order.
func TestUserStore_ListByRole(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedUser(t, s, "o-2", "o2@roost.nz", domain.RoleOwner, base.Add(2*time.Hour))
	seedUser(t, s, "o-1", "o1@roost.nz", domain.RoleOwner, base.Add(time.Hour))
	seedUser(t, s, "r-1", "r1@roost.nz", domain.RoleRenter, base)

	owners, err := s.ListByRole(context.Background(), domain.RoleOwner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("expected 2 owners, got %d", len(owners))
	}
	if owners[0].ID != "o-1" || owners[1].ID != "o-2" {
		t.Errorf("expected creation order o-1, o-2; got %s, %s", owners[0].ID, owners[1].ID)
	}
}

// TestUserStore_ListByIDs tests the IN-clause query and silent misses.
func TestUserStore_ListByIDs(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)
	seedUser(t, s, "u-1", "u1@roost.nz", domain.RoleRenter, now)
	seedUser(t, s, "u-2", "u2@roost.nz", domain.RoleRenter, now.Add(time.Second))

	got, err := s.ListByIDs(context.Background(), []string{"u-2", "ghost", "u-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 users, missing IDs silently dropped; got %d", len(got))
	}

	got, err = s.ListByIDs(context.Background(), nil)
	if err != nil || got != nil {
		t.Errorf("empty input must return nothing, got %v, %v", got, err)
	}
}

// TestUserStore_ListPage tests pagination, role filter and search together.
func TestUserStore_ListPage(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedUser(t, s, "o-1", "aroha@roost.nz", domain.RoleOwner, base)
	seedUser(t, s, "o-2", "ben@roost.nz", domain.RoleOwner, base.Add(time.Hour))
	seedUser(t, s, "r-1", "aroha.renter@roost.nz", domain.RoleRenter, base.Add(2*time.Hour))

	users, total, err := s.ListPage(context.Background(), listutil.ListParams{
		PageParams:   listutil.PageParams{Page: 1, PerPage: 10},
		FilterParams: listutil.FilterParams{Search: "aroha", Filters: map[string]string{"role": domain.RoleOwner}},
	})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].ID != "o-1" {
		t.Errorf("expected only the matching owner, got total=%d users=%v", total, users)
	}

	// Pagination slices the result.
	users, total, err = s.ListPage(context.Background(), listutil.ListParams{
		PageParams:   listutil.PageParams{Page: 2, PerPage: 2},
		FilterParams: listutil.FilterParams{Filters: map[string]string{}},
	})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if total != 3 || len(users) != 1 {
		t.Errorf("expected page 2 of 3 users with per_page 2, got total=%d len=%d", total, len(users))
	}
}

// TestUserStore_Counts tests Count and CountByRole.
func TestUserStore_Counts(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)
	seedUser(t, s, "o-1", "o1@roost.nz", domain.RoleOwner, now)
	seedUser(t, s, "r-1", "r1@roost.nz", domain.RoleRenter, now)
	seedUser(t, s, "r-2", "r2@roost.nz", domain.RoleRenter, now)

	total, err := s.Count(context.Background())
	if err != nil || total != 3 {
		t.Errorf("expected 3 users, got %d (%v)", total, err)
	}
	renters, err := s.CountByRole(context.Background(), domain.RoleRenter)
	if err != nil || renters != 2 {
		t.Errorf("expected 2 renters, got %d (%v)", renters, err)
	}
}
