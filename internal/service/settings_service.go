package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scosmb/license-console/internal/domain/admin"
	"github.com/scosmb/license-console/internal/domain/settings"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/ierr"
	"go.uber.org/zap"
)

type SettingsService struct {
	repo   settings.Repository
	logger *zap.Logger
}

func NewSettingsService(repo settings.Repository, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		repo:   repo,
		logger: logger.Named("SettingsService"),
	}
}

func (s *SettingsService) GetSettings(ctx context.Context, caller *admin.User) (*settings.Settings, error) {
	if !caller.Can(admin.ActionViewSettings) {
		return nil, ierr.ErrForbidden
	}

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			return settings.Defaults(), nil
		}
		s.logger.Error("Failed to load settings", zap.Error(err))
		return nil, fmt.Errorf("repository error loading settings: %w", err)
	}
	return cfg, nil
}

func (s *SettingsService) UpdateSettings(ctx context.Context, caller *admin.User, req *dto.UpdateSettingsRequest) (*settings.Settings, error) {
	if !caller.Can(admin.ActionEditSettings) {
		return nil, ierr.ErrForbidden
	}

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			s.logger.Error("Failed to load settings for update", zap.Error(err))
			return nil, fmt.Errorf("repository error loading settings: %w", err)
		}
		cfg = settings.Defaults()
	}

	if req.AutoRevokeExpired != nil {
		cfg.AutoRevokeExpired = *req.AutoRevokeExpired
	}
	if req.DefaultMaxDownloads != nil {
		cfg.DefaultMaxDownloads = *req.DefaultMaxDownloads
	}
	if req.DownloadBaseURL != nil {
		cfg.DownloadBaseURL = *req.DownloadBaseURL
	}
	cfg.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, cfg); err != nil {
		s.logger.Error("Failed to save settings", zap.Error(err))
		return nil, fmt.Errorf("repository error saving settings: %w", err)
	}

	s.logger.Info("Console settings updated",
		zap.Bool("auto_revoke_expired", cfg.AutoRevokeExpired),
		zap.Int("default_max_downloads", cfg.DefaultMaxDownloads),
		zap.String("updated_by", caller.Username),
	)
	return cfg, nil
}
