package admin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("admin user not found")
	ErrUpdateFailed = errors.New("admin user update failed")

	// ErrLastSuperAdmin is returned when a mutation would remove, deactivate
	// or demote the last active super_admin.
	ErrLastSuperAdmin = errors.New("last active super_admin")
)

type Repository interface {
	Create(ctx context.Context, user *User) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)

	// Update and Delete enforce the last-super-admin protection atomically
	// with the mutation and return ErrLastSuperAdmin when it blocks, so two
	// racing mutations cannot both slip past the check.
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uuid.UUID) error

	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// CountActiveSuperAdmins backs the service-level fast path of the same
	// protection.
	CountActiveSuperAdmins(ctx context.Context) (int64, error)
}
