package settings

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("settings not found")

// Settings is the singleton console configuration row edited from the
// dashboard settings page.
type Settings struct {
	AutoRevokeExpired   bool      `db:"auto_revoke_expired" json:"auto_revoke_expired"`
	DefaultMaxDownloads int       `db:"default_max_downloads" json:"default_max_downloads"`
	DownloadBaseURL     string    `db:"download_base_url" json:"download_base_url"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

func Defaults() *Settings {
	return &Settings{
		AutoRevokeExpired:   false,
		DefaultMaxDownloads: 3,
		DownloadBaseURL:     "https://downloads.scosmb.com/installer",
	}
}

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}
