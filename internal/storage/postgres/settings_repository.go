package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scosmb/license-console/internal/domain/settings"
	"go.uber.org/zap"
)

type SettingsRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSettingsRepository(db *pgxpool.Pool, logger *zap.Logger) *SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger.Named("SettingsRepository"),
	}
}

var _ settings.Repository = (*SettingsRepository)(nil)

func (r *SettingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	query := `
        SELECT auto_revoke_expired, default_max_downloads, download_base_url, updated_at
        FROM console_settings WHERE id = 1
    `
	var s settings.Settings
	err := r.db.QueryRow(ctx, query).Scan(
		&s.AutoRevokeExpired,
		&s.DefaultMaxDownloads,
		&s.DownloadBaseURL,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settings.ErrNotFound
		}
		r.logger.Error("Failed to load console settings", zap.Error(err))
		return nil, fmt.Errorf("database error loading settings: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *settings.Settings) error {
	query := `
        INSERT INTO console_settings (id, auto_revoke_expired, default_max_downloads, download_base_url, updated_at)
        VALUES (1, $1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET
            auto_revoke_expired = EXCLUDED.auto_revoke_expired,
            default_max_downloads = EXCLUDED.default_max_downloads,
            download_base_url = EXCLUDED.download_base_url,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.db.Exec(ctx, query, s.AutoRevokeExpired, s.DefaultMaxDownloads, s.DownloadBaseURL, s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to save console settings", zap.Error(err))
		return fmt.Errorf("database error saving settings: %w", err)
	}
	return nil
}
