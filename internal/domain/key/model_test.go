package key

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		key  Key
		want Status
	}{
		{
			name: "unused key without expiry stays unused",
			key:  Key{Status: StatusUnused},
			want: StatusUnused,
		},
		{
			name: "active key with future expiry stays active",
			key: Key{
				Status:    StatusActive,
				ExpiresAt: sql.NullTime{Time: now.Add(24 * time.Hour), Valid: true},
			},
			want: StatusActive,
		},
		{
			name: "unused key past expiry reads expired",
			key: Key{
				Status:    StatusUnused,
				ExpiresAt: sql.NullTime{Time: now.Add(-time.Minute), Valid: true},
			},
			want: StatusExpired,
		},
		{
			name: "expiry exactly at now reads expired",
			key: Key{
				Status:    StatusActive,
				ExpiresAt: sql.NullTime{Time: now, Valid: true},
			},
			want: StatusExpired,
		},
		{
			name: "revoked wins over expiry",
			key: Key{
				Status:    StatusRevoked,
				ExpiresAt: sql.NullTime{Time: now.Add(-time.Hour), Valid: true},
			},
			want: StatusRevoked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.EffectiveStatus(now))
		})
	}
}

func TestDownloadable(t *testing.T) {
	now := time.Now().UTC()

	fresh := Key{Status: StatusUnused, DownloadCount: 0, MaxDownloads: 3}
	assert.True(t, fresh.Downloadable(now))

	atQuota := Key{Status: StatusActive, DownloadCount: 3, MaxDownloads: 3}
	assert.False(t, atQuota.Downloadable(now))

	expired := Key{
		Status:       StatusUnused,
		MaxDownloads: 3,
		ExpiresAt:    sql.NullTime{Time: now.Add(-time.Hour), Valid: true},
	}
	assert.False(t, expired.Downloadable(now))

	revoked := Key{Status: StatusRevoked, DownloadCount: 0, MaxDownloads: 3}
	assert.False(t, revoked.Downloadable(now))
}

func TestRevocable(t *testing.T) {
	assert.True(t, (&Key{Status: StatusUnused}).Revocable())
	assert.True(t, (&Key{Status: StatusActive}).Revocable())
	assert.True(t, (&Key{Status: StatusExpired}).Revocable())
	assert.False(t, (&Key{Status: StatusRevoked}).Revocable())
}
