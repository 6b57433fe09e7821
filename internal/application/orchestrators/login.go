package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	userDomain "roost/internal/domain/user"
)

// UserStoreForLogin defines the store interface needed by Login.
type UserStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (userDomain.User, error)
	Save(ctx context.Context, u userDomain.User) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	UserID string
	Email  string
	Role   string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	UserStore UserStoreForLogin
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
	ErrAccountSuspended   = errors.New("account is suspended")
)

// ExecuteLogin validates credentials and returns user info for session creation.
// PRE: Valid email and password provided
// POST: Returns user info on success, records failed login on failure
// INVARIANT: User must not be locked or suspended
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	u, err := deps.UserStore.GetByEmail(ctx, input.Email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}

	if u.IsSuspended() {
		slog.Info("auth_event", "event", "login_blocked", "email", input.Email, "reason", "suspended")
		return LoginResult{}, ErrAccountSuspended
	}

	if u.IsLocked() {
		slog.Info("auth_event", "event", "login_blocked", "email", input.Email, "reason", "locked")
		return LoginResult{}, ErrAccountLocked
	}

	if err := u.CheckPassword(input.Password); err != nil {
		u.RecordFailedLogin()
		_ = deps.UserStore.Save(ctx, u)
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "wrong_password", "failed_logins", u.FailedLogins)
		return LoginResult{}, ErrInvalidCredentials
	}

	u.ResetFailedLogins()
	_ = deps.UserStore.Save(ctx, u)

	slog.Info("auth_event", "event", "login_success", "email", input.Email, "role", u.Role)

	return LoginResult{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}, nil
}
