package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/scosmb/license-console/internal/domain/key"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/ierr"
	"github.com/scosmb/license-console/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type downloadFixture struct {
	keys     *memstorage.KeyRepository
	download *DownloadService
	generate func(t *testing.T, req *dto.GenerateKeysRequest) *key.Key
}

func newDownloadFixture(t *testing.T) *downloadFixture {
	t.Helper()

	keyRepo := memstorage.NewKeyRepository()
	keySvc := NewKeyService(keyRepo, zap.NewNop())
	downloadSvc := NewDownloadService(keyRepo, memstorage.NewSettingsRepository(), memstorage.NewGrantStore(), 15*time.Minute, zap.NewNop())

	return &downloadFixture{
		keys:     keyRepo,
		download: downloadSvc,
		generate: func(t *testing.T, req *dto.GenerateKeysRequest) *key.Key {
			t.Helper()
			keys, err := keySvc.GenerateKeys(context.Background(), superAdminCaller(), req)
			require.NoError(t, err)
			require.Len(t, keys, req.Count)
			return keys[0]
		},
	}
}

func (f *downloadFixture) reload(t *testing.T, code string) *key.Key {
	t.Helper()
	k, err := f.keys.FindByCode(context.Background(), code)
	require.NoError(t, err)
	return k
}

func TestAttemptDownloadQuotaScenario(t *testing.T) {
	f := newDownloadFixture(t)
	k := f.generate(t, &dto.GenerateKeysRequest{Count: 1, MaxDownloads: 3})

	for i := 1; i <= 3; i++ {
		grant, err := f.download.AttemptDownload(context.Background(), k.KeyCode)
		require.NoError(t, err, "download %d should succeed", i)
		assert.NotEmpty(t, grant.Token)
		assert.Contains(t, grant.DownloadURL, grant.Token)
		assert.Equal(t, 3-i, grant.DownloadsRemaining)

		stored := f.reload(t, k.KeyCode)
		assert.Equal(t, key.StatusActive, stored.Status, "first download activates the key")
		assert.Equal(t, i, stored.DownloadCount)
		assert.True(t, stored.LastUsedAt.Valid)
	}

	_, err := f.download.AttemptDownload(context.Background(), k.KeyCode)
	assert.ErrorIs(t, err, ierr.ErrQuotaExceeded)

	stored := f.reload(t, k.KeyCode)
	assert.Equal(t, 3, stored.DownloadCount, "a denied attempt must not move the counter")
	assert.Equal(t, key.StatusActive, stored.Status)
}

func TestRedeemGrantRoundTrip(t *testing.T) {
	f := newDownloadFixture(t)
	k := f.generate(t, &dto.GenerateKeysRequest{Count: 1, MaxDownloads: 3})

	grant, err := f.download.AttemptDownload(context.Background(), k.KeyCode)
	require.NoError(t, err)

	keyCode, err := f.download.RedeemGrant(context.Background(), grant.Token)
	require.NoError(t, err)
	assert.Equal(t, k.KeyCode, keyCode)

	_, err = f.download.RedeemGrant(context.Background(), "NOSUCHTOKEN")
	assert.ErrorIs(t, err, ierr.ErrNotFound)
}

func TestAttemptDownloadUnknownKey(t *testing.T) {
	f := newDownloadFixture(t)

	_, err := f.download.AttemptDownload(context.Background(), "SCO-AAAA-BBBB-CCCC")
	assert.ErrorIs(t, err, ierr.ErrKeyNotFound)
}

func TestAttemptDownloadExpiredKey(t *testing.T) {
	f := newDownloadFixture(t)

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	k := f.generate(t, &dto.GenerateKeysRequest{Count: 1, MaxDownloads: 3, ExpiresAt: &yesterday})

	_, err := f.download.AttemptDownload(context.Background(), k.KeyCode)
	assert.ErrorIs(t, err, ierr.ErrKeyInactive)

	stored := f.reload(t, k.KeyCode)
	assert.Equal(t, 0, stored.DownloadCount)
	assert.Equal(t, key.StatusExpired, stored.Status, "lazy expiration persists the derived status")
}

func TestAttemptDownloadRevokedKey(t *testing.T) {
	f := newDownloadFixture(t)
	k := f.generate(t, &dto.GenerateKeysRequest{Count: 1, MaxDownloads: 3})

	require.NoError(t, f.keys.UpdateStatus(context.Background(), k.ID, key.StatusRevoked))

	_, err := f.download.AttemptDownload(context.Background(), k.KeyCode)
	assert.ErrorIs(t, err, ierr.ErrKeyInactive)

	stored := f.reload(t, k.KeyCode)
	assert.Equal(t, key.StatusRevoked, stored.Status)
	assert.Equal(t, 0, stored.DownloadCount)
}

// Firing maxDownloads+k concurrent attempts must yield exactly maxDownloads
// successes regardless of interleaving.
func TestAttemptDownloadConcurrentQuotaBoundary(t *testing.T) {
	f := newDownloadFixture(t)

	const maxDownloads = 5
	const extra = 7
	k := f.generate(t, &dto.GenerateKeysRequest{Count: 1, MaxDownloads: maxDownloads})

	var wg sync.WaitGroup
	results := make(chan error, maxDownloads+extra)
	for i := 0; i < maxDownloads+extra; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.download.AttemptDownload(context.Background(), k.KeyCode)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, quotaFailures int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, ierr.ErrQuotaExceeded):
			quotaFailures++
		}
	}

	assert.Equal(t, maxDownloads, successes)
	assert.Equal(t, extra, quotaFailures)

	stored := f.reload(t, k.KeyCode)
	assert.Equal(t, maxDownloads, stored.DownloadCount, "download count must never exceed the quota")
}
