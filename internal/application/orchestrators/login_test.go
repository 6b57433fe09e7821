package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	userDomain "roost/internal/domain/user"
)

// mockUserStore implements UserStoreForLogin and UserStoreForCreate.
type mockUserStore struct {
	byEmail map[string]userDomain.User
	saved   []userDomain.User
}

func newMockUserStore(users ...userDomain.User) *mockUserStore {
	m := &mockUserStore{byEmail: make(map[string]userDomain.User)}
	for _, u := range users {
		m.byEmail[u.Email] = u
	}
	return m
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (userDomain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return userDomain.User{}, sql.ErrNoRows
}

func (m *mockUserStore) Save(_ context.Context, u userDomain.User) error {
	m.byEmail[u.Email] = u
	m.saved = append(m.saved, u)
	return nil
}

func (m *mockUserStore) Count(_ context.Context) (int, error) {
	return len(m.byEmail), nil
}

func activeUser(t *testing.T, email, password string) userDomain.User {
	t.Helper()
	u := userDomain.User{
		ID:        "u-1",
		Email:     email,
		Role:      userDomain.RoleRenter,
		Status:    userDomain.StatusActive,
		CreatedAt: time.Now(),
	}
	if err := u.SetPassword(password); err != nil {
		t.Fatalf("set password: %v", err)
	}
	return u
}

// TestLogin_Success tests the happy path and failed-counter reset.
func TestLogin_Success(t *testing.T) {
	u := activeUser(t, "kai@roost.nz", "correct horse battery")
	u.FailedLogins = 3
	store := newMockUserStore(u)

	result, err := ExecuteLogin(context.Background(), LoginInput{Email: "kai@roost.nz", Password: "correct horse battery"}, LoginDeps{UserStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UserID != "u-1" || result.Role != userDomain.RoleRenter {
		t.Errorf("unexpected result: %+v", result)
	}
	if store.byEmail["kai@roost.nz"].FailedLogins != 0 {
		t.Error("failed login counter must reset on success")
	}
}

// TestLogin_WrongPassword tests that a bad password increments the counter
// and returns the generic credentials error.
func TestLogin_WrongPassword(t *testing.T) {
	store := newMockUserStore(activeUser(t, "kai@roost.nz", "correct horse battery"))

	_, err := ExecuteLogin(context.Background(), LoginInput{Email: "kai@roost.nz", Password: "wrong password!"}, LoginDeps{UserStore: store})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if store.byEmail["kai@roost.nz"].FailedLogins != 1 {
		t.Errorf("expected failed counter 1, got %d", store.byEmail["kai@roost.nz"].FailedLogins)
	}
}

// TestLogin_UnknownEmailSameError tests that an unknown address is
// indistinguishable from a wrong password.
func TestLogin_UnknownEmailSameError(t *testing.T) {
	store := newMockUserStore()
	_, err := ExecuteLogin(context.Background(), LoginInput{Email: "nobody@roost.nz", Password: "whatever whatever"}, LoginDeps{UserStore: store})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

// TestLogin_LockedAccount tests the lockout gate.
func TestLogin_LockedAccount(t *testing.T) {
	u := activeUser(t, "kai@roost.nz", "correct horse battery")
	u.LockedUntil = time.Now().Add(10 * time.Minute)
	store := newMockUserStore(u)

	_, err := ExecuteLogin(context.Background(), LoginInput{Email: "kai@roost.nz", Password: "correct horse battery"}, LoginDeps{UserStore: store})
	if !errors.Is(err, ErrAccountLocked) {
		t.Errorf("expected ErrAccountLocked, got %v", err)
	}
}

// TestLogin_SuspendedAccount tests that suspension blocks even a correct password.
func TestLogin_SuspendedAccount(t *testing.T) {
	u := activeUser(t, "kai@roost.nz", "correct horse battery")
	u.Status = userDomain.StatusSuspended
	store := newMockUserStore(u)

	_, err := ExecuteLogin(context.Background(), LoginInput{Email: "kai@roost.nz", Password: "correct horse battery"}, LoginDeps{UserStore: store})
	if !errors.Is(err, ErrAccountSuspended) {
		t.Errorf("expected ErrAccountSuspended, got %v", err)
	}
}

// TestCreateUser_DuplicateEmail tests the uniqueness gate.
func TestCreateUser_DuplicateEmail(t *testing.T) {
	store := newMockUserStore(activeUser(t, "kai@roost.nz", "correct horse battery"))

	_, err := ExecuteCreateUser(context.Background(), CreateUserInput{
		Email:    "kai@roost.nz",
		Password: "another long password",
		Role:     userDomain.RoleOwner,
	}, CreateUserDeps{UserStore: store})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Errorf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

// TestSeedAdmin_SkipsWhenUsersExist tests that seeding is a no-op on a
// populated directory.
func TestSeedAdmin_SkipsWhenUsersExist(t *testing.T) {
	store := newMockUserStore(activeUser(t, "kai@roost.nz", "correct horse battery"))

	if err := ExecuteSeedAdmin(context.Background(), CreateUserDeps{UserStore: store}, "admin@roost.nz", "admin seed password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.saved) != 0 {
		t.Error("seeding must not write when users already exist")
	}
}

// TestSeedAdmin_CreatesFirstAdmin tests the empty-directory seed path.
func TestSeedAdmin_CreatesFirstAdmin(t *testing.T) {
	store := newMockUserStore()

	if err := ExecuteSeedAdmin(context.Background(), CreateUserDeps{UserStore: store}, "admin@roost.nz", "admin seed password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, ok := store.byEmail["admin@roost.nz"]
	if !ok {
		t.Fatal("expected seeded admin")
	}
	if !u.IsAdmin() {
		t.Errorf("expected admin role, got %s", u.Role)
	}
	if u.CheckPassword("admin seed password") != nil {
		t.Error("seeded admin password must verify")
	}
}
