package tasks

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/scosmb/license-console/internal/domain/key"
	"github.com/scosmb/license-console/internal/domain/settings"
	"github.com/scosmb/license-console/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedKeys(t *testing.T, repo *memstorage.KeyRepository) (lapsed, live *key.Key) {
	t.Helper()
	now := time.Now().UTC()

	lapsed = &key.Key{
		KeyCode:      "SCO-AAAA-AAAA-AAAA",
		Status:       key.StatusActive,
		MaxDownloads: 3,
		ExpiresAt:    sql.NullTime{Time: now.Add(-time.Hour), Valid: true},
	}
	live = &key.Key{
		KeyCode:      "SCO-BBBB-BBBB-BBBB",
		Status:       key.StatusUnused,
		MaxDownloads: 3,
		ExpiresAt:    sql.NullTime{Time: now.Add(time.Hour), Valid: true},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), []*key.Key{lapsed, live}))
	return lapsed, live
}

func TestExpireSweepMarksLapsedKeysExpired(t *testing.T) {
	keyRepo := memstorage.NewKeyRepository()
	lapsed, live := seedKeys(t, keyRepo)

	h := NewKeyExpireSweepHandler(keyRepo, memstorage.NewSettingsRepository(), 100, zap.NewNop())
	task, err := NewKeyExpireSweepTask()
	require.NoError(t, err)

	require.NoError(t, h.ProcessTask(context.Background(), task))

	updated, err := keyRepo.FindByCode(context.Background(), lapsed.KeyCode)
	require.NoError(t, err)
	assert.Equal(t, key.StatusExpired, updated.Status)

	untouched, err := keyRepo.FindByCode(context.Background(), live.KeyCode)
	require.NoError(t, err)
	assert.Equal(t, key.StatusUnused, untouched.Status)
}

func TestExpireSweepAutoRevokePolicy(t *testing.T) {
	keyRepo := memstorage.NewKeyRepository()
	lapsed, _ := seedKeys(t, keyRepo)

	settingsRepo := memstorage.NewSettingsRepository()
	cfg := settings.Defaults()
	cfg.AutoRevokeExpired = true
	require.NoError(t, settingsRepo.Save(context.Background(), cfg))

	h := NewKeyExpireSweepHandler(keyRepo, settingsRepo, 100, zap.NewNop())
	task, err := NewKeyExpireSweepTask()
	require.NoError(t, err)

	require.NoError(t, h.ProcessTask(context.Background(), task))

	updated, err := keyRepo.FindByCode(context.Background(), lapsed.KeyCode)
	require.NoError(t, err)
	assert.Equal(t, key.StatusRevoked, updated.Status)
}
