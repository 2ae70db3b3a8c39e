package memstorage

import (
	"context"
	"sync"

	"github.com/scosmb/license-console/internal/domain/settings"
)

type SettingsRepository struct {
	mu      sync.RWMutex
	current *settings.Settings
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

var _ settings.Repository = (*SettingsRepository)(nil)

func (r *SettingsRepository) Get(_ context.Context) (*settings.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil {
		return nil, settings.ErrNotFound
	}
	copied := *r.current
	return &copied, nil
}

func (r *SettingsRepository) Save(_ context.Context, s *settings.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *s
	r.current = &copied
	return nil
}
