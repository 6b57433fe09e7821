package user

import (
	"context"

	"roost/internal/application/listutil"
	domain "roost/internal/domain/user"
)

// Store persists User state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Save(ctx context.Context, value domain.User) error
	Delete(ctx context.Context, id string) error

	// Audience resolution queries. Order is the store's natural return
	// order (creation time); callers must not rely on a particular sort.
	ListAll(ctx context.Context) ([]domain.User, error)
	ListByRole(ctx context.Context, role string) ([]domain.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.User, error)

	// ListPage returns a page of users for the admin directory.
	ListPage(ctx context.Context, params listutil.ListParams) ([]domain.User, int, error)

	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role string) (int, error)
}
