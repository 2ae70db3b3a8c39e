package key

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUnused  Status = "unused"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// Key is a license key entitling its holder to a bounded number of
// downloads of the SCO SMB installer.
type Key struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	KeyCode         string         `db:"key_code" json:"key_code"`
	Status          Status         `db:"status" json:"status"`
	DownloadCount   int            `db:"download_count" json:"download_count"`
	MaxDownloads    int            `db:"max_downloads" json:"max_downloads"`
	CustomerName    sql.NullString `db:"customer_name" json:"customer_name,omitempty"`
	CustomerEmail   sql.NullString `db:"customer_email" json:"customer_email,omitempty"`
	CustomerCompany sql.NullString `db:"customer_company" json:"customer_company,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	ExpiresAt       sql.NullTime   `db:"expires_at" json:"expires_at,omitempty"`
	LastUsedAt      sql.NullTime   `db:"last_used_at" json:"last_used_at,omitempty"`
}

// EffectiveStatus applies the lazy expiration rule: a key whose expires_at
// has passed reads as expired even if the stored status has not been
// rewritten yet. Revocation always wins.
func (k *Key) EffectiveStatus(now time.Time) Status {
	if k.Status == StatusRevoked {
		return StatusRevoked
	}
	if k.ExpiresAt.Valid && !k.ExpiresAt.Time.After(now) {
		return StatusExpired
	}
	return k.Status
}

// Downloadable reports whether a download attempt at the given instant may
// succeed: the key must not be expired or revoked and must have quota left.
func (k *Key) Downloadable(now time.Time) bool {
	switch k.EffectiveStatus(now) {
	case StatusUnused, StatusActive:
		return k.DownloadCount < k.MaxDownloads
	default:
		return false
	}
}

// Revocable reports whether Revoke would change the key. Revoking an
// already revoked key is treated as an idempotent no-op upstream.
func (k *Key) Revocable() bool {
	return k.Status != StatusRevoked
}
