package dto

import (
	"time"

	"github.com/scosmb/license-console/internal/domain/settings"
)

type UpdateSettingsRequest struct {
	AutoRevokeExpired   *bool   `json:"auto_revoke_expired"`
	DefaultMaxDownloads *int    `json:"default_max_downloads" binding:"omitempty,gte=1,lte=50"`
	DownloadBaseURL     *string `json:"download_base_url" binding:"omitempty,url"`
}

type SettingsResponse struct {
	AutoRevokeExpired   bool      `json:"auto_revoke_expired"`
	DefaultMaxDownloads int       `json:"default_max_downloads"`
	DownloadBaseURL     string    `json:"download_base_url"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func NewSettingsResponse(s *settings.Settings) *SettingsResponse {
	return &SettingsResponse{
		AutoRevokeExpired:   s.AutoRevokeExpired,
		DefaultMaxDownloads: s.DefaultMaxDownloads,
		DownloadBaseURL:     s.DownloadBaseURL,
		UpdatedAt:           s.UpdatedAt,
	}
}
