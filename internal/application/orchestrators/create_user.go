package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	userDomain "roost/internal/domain/user"

	"github.com/google/uuid"
)

// UserStoreForCreate defines the store interface needed by CreateUser.
type UserStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (userDomain.User, error)
	Save(ctx context.Context, u userDomain.User) error
	Count(ctx context.Context) (int, error)
}

// CreateUserInput carries input for the orchestrator.
type CreateUserInput struct {
	Email       string
	DisplayName string
	Password    string
	Role        string
}

// CreateUserDeps holds dependencies for CreateUser.
type CreateUserDeps struct {
	UserStore UserStoreForCreate
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ExecuteCreateUser coordinates user creation.
// PRE: Valid email, password >= 12 chars, valid role
// POST: User created with hashed password
// INVARIANT: Email must be unique
func ExecuteCreateUser(ctx context.Context, input CreateUserInput, deps CreateUserDeps) (string, error) {
	if input.Email == "" {
		return "", errors.New("email cannot be empty")
	}
	if input.Password == "" {
		return "", userDomain.ErrEmptyPassword
	}
	if input.Role == "" {
		return "", errors.New("role cannot be empty")
	}

	_, err := deps.UserStore.GetByEmail(ctx, input.Email)
	if err == nil {
		return "", ErrEmailAlreadyExists
	}

	u := userDomain.User{
		ID:          uuid.New().String(),
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Role:        input.Role,
		Status:      userDomain.StatusActive,
		CreatedAt:   time.Now(),
	}

	if err := u.Validate(); err != nil {
		return "", err
	}

	if err := u.SetPassword(input.Password); err != nil {
		return "", err
	}

	if err := deps.UserStore.Save(ctx, u); err != nil {
		return "", err
	}

	slog.Info("auth_event", "event", "user_created", "email", input.Email, "role", input.Role)

	return u.ID, nil
}

// ExecuteSeedAdmin creates a default admin account if no users exist.
// PRE: Database is initialized
// POST: Admin account created if count == 0
func ExecuteSeedAdmin(ctx context.Context, deps CreateUserDeps, email, password string) error {
	count, err := deps.UserStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = ExecuteCreateUser(ctx, CreateUserInput{
		Email:       email,
		DisplayName: "Administrator",
		Password:    password,
		Role:        userDomain.RoleAdmin,
	}, deps)
	if err != nil {
		return err
	}

	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return nil
}
