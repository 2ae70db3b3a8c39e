package memstorage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scosmb/license-console/internal/domain/admin"
)

type AdminRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*admin.User
}

func NewAdminRepository() *AdminRepository {
	return &AdminRepository{
		users: make(map[uuid.UUID]*admin.User),
	}
}

var _ admin.Repository = (*AdminRepository)(nil)

func (r *AdminRepository) Create(_ context.Context, user *admin.User) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	copied := *user
	r.users[user.ID] = &copied
	return user.ID, nil
}

func (r *AdminRepository) FindByID(_ context.Context, id uuid.UUID) (*admin.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, admin.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *AdminRepository) FindByUsername(_ context.Context, username string) (*admin.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, admin.ErrNotFound
}

func (r *AdminRepository) List(_ context.Context) ([]*admin.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*admin.User, 0, len(r.users))
	for _, u := range r.users {
		copied := *u
		users = append(users, &copied)
	}
	return users, nil
}

func (r *AdminRepository) Update(_ context.Context, user *admin.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return admin.ErrNotFound
	}
	losesSuperAdmin := user.Role != admin.RoleSuperAdmin || !user.IsActive
	if losesSuperAdmin && r.isLastActiveSuperAdmin(stored) {
		return admin.ErrLastSuperAdmin
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *AdminRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return admin.ErrNotFound
	}
	if r.isLastActiveSuperAdmin(stored) {
		return admin.ErrLastSuperAdmin
	}
	delete(r.users, id)
	return nil
}

// isLastActiveSuperAdmin runs with the write lock held, so the check and the
// mutation that follows it are a single atomic step.
func (r *AdminRepository) isLastActiveSuperAdmin(target *admin.User) bool {
	if target.Role != admin.RoleSuperAdmin || !target.IsActive {
		return false
	}
	for _, u := range r.users {
		if u.ID != target.ID && u.Role == admin.RoleSuperAdmin && u.IsActive {
			return false
		}
	}
	return true
}

func (r *AdminRepository) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return admin.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (r *AdminRepository) CountActiveSuperAdmins(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, u := range r.users {
		if u.Role == admin.RoleSuperAdmin && u.IsActive {
			count++
		}
	}
	return count, nil
}
