package memstorage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scosmb/license-console/internal/domain/tech"
)

type TechRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*tech.User
}

func NewTechRepository() *TechRepository {
	return &TechRepository{
		users: make(map[uuid.UUID]*tech.User),
	}
}

var _ tech.Repository = (*TechRepository)(nil)

func (r *TechRepository) Create(_ context.Context, user *tech.User) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	copied := *user
	r.users[user.ID] = &copied
	return user.ID, nil
}

func (r *TechRepository) FindByID(_ context.Context, id uuid.UUID) (*tech.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, tech.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *TechRepository) FindByUsername(_ context.Context, username string) (*tech.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, tech.ErrNotFound
}

func (r *TechRepository) List(_ context.Context) ([]*tech.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*tech.User, 0, len(r.users))
	for _, u := range r.users {
		copied := *u
		users = append(users, &copied)
	}
	return users, nil
}

func (r *TechRepository) Update(_ context.Context, user *tech.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return tech.ErrNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *TechRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return tech.ErrNotFound
	}
	delete(r.users, id)
	return nil
}
