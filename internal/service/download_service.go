package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scosmb/license-console/internal/domain/key"
	"github.com/scosmb/license-console/internal/domain/settings"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/ierr"
	"github.com/scosmb/license-console/internal/metrics"
	"github.com/scosmb/license-console/internal/util"
	"go.uber.org/zap"
)

// GrantStore keeps issued download grants until they are redeemed or their
// TTL lapses.
type GrantStore interface {
	SaveGrant(ctx context.Context, token string, keyCode string, ttl time.Duration) error
	LookupGrant(ctx context.Context, token string) (string, bool, error)
}

type DownloadService struct {
	keys     key.Repository
	settings settings.Repository
	grants   GrantStore
	grantTTL time.Duration
	logger   *zap.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewDownloadService(keys key.Repository, settingsRepo settings.Repository, grants GrantStore, grantTTL time.Duration, logger *zap.Logger) *DownloadService {
	return &DownloadService{
		keys:     keys,
		settings: settingsRepo,
		grants:   grants,
		grantTTL: grantTTL,
		logger:   logger.Named("DownloadService"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AttemptDownload enforces the quota for one download attempt. The
// increment-and-check runs as a single conditional update in the repository,
// so two racing attempts on the last remaining download cannot both pass.
func (s *DownloadService) AttemptDownload(ctx context.Context, keyCode string) (*dto.DownloadGrantResponse, error) {
	now := s.now()

	k, err := s.keys.RegisterDownload(ctx, keyCode, now)
	if err == nil {
		return s.issueGrant(ctx, k, now)
	}
	if !errors.Is(err, key.ErrNotFound) {
		s.logger.Error("Download registration failed", zap.String("key_code", keyCode), zap.Error(err))
		return nil, fmt.Errorf("repository error registering download: %w", err)
	}

	// No row qualified. Re-read the key to tell the caller why.
	k, err = s.keys.FindByCode(ctx, keyCode)
	if err != nil {
		if errors.Is(err, key.ErrNotFound) {
			metrics.DownloadsDenied.WithLabelValues("not_found").Inc()
			return nil, ierr.ErrKeyNotFound
		}
		return nil, fmt.Errorf("repository error loading key: %w", err)
	}

	switch k.EffectiveStatus(now) {
	case key.StatusExpired:
		// Lazy expiration: persist the derived status so listings stop
		// showing the key as live. Failure here does not change the verdict.
		if k.Status != key.StatusExpired {
			if updErr := s.keys.UpdateStatus(ctx, k.ID, key.StatusExpired); updErr != nil {
				s.logger.Warn("Failed to persist lazy expiration", zap.String("key_code", keyCode), zap.Error(updErr))
			}
		}
		metrics.DownloadsDenied.WithLabelValues("expired").Inc()
		s.logger.Info("Download denied: key expired", zap.String("key_code", keyCode))
		return nil, fmt.Errorf("%w: key expired at %s", ierr.ErrKeyInactive, k.ExpiresAt.Time.Format(time.RFC3339))
	case key.StatusRevoked:
		metrics.DownloadsDenied.WithLabelValues("revoked").Inc()
		s.logger.Info("Download denied: key revoked", zap.String("key_code", keyCode))
		return nil, fmt.Errorf("%w: key has been revoked", ierr.ErrKeyInactive)
	default:
		metrics.DownloadsDenied.WithLabelValues("quota").Inc()
		s.logger.Info("Download denied: quota exceeded",
			zap.String("key_code", keyCode),
			zap.Int("download_count", k.DownloadCount),
			zap.Int("max_downloads", k.MaxDownloads),
		)
		return nil, fmt.Errorf("%w: %d/%d downloads used", ierr.ErrQuotaExceeded, k.DownloadCount, k.MaxDownloads)
	}
}

// RedeemGrant resolves a grant token issued by AttemptDownload back to its
// key code. Unknown and lapsed tokens are indistinguishable to the caller.
func (s *DownloadService) RedeemGrant(ctx context.Context, token string) (string, error) {
	keyCode, ok, err := s.grants.LookupGrant(ctx, token)
	if err != nil {
		s.logger.Error("Grant lookup failed", zap.Error(err))
		return "", fmt.Errorf("%w: grant lookup failed", ierr.ErrPersistence)
	}
	if !ok {
		return "", fmt.Errorf("%w: download grant expired or unknown", ierr.ErrNotFound)
	}
	return keyCode, nil
}

func (s *DownloadService) issueGrant(ctx context.Context, k *key.Key, now time.Time) (*dto.DownloadGrantResponse, error) {
	token, err := util.GenerateGrantToken()
	if err != nil {
		s.logger.Error("Failed to generate grant token", zap.Error(err))
		return nil, fmt.Errorf("%w: grant token generation failed", ierr.ErrInternalServer)
	}

	if err := s.grants.SaveGrant(ctx, token, k.KeyCode, s.grantTTL); err != nil {
		s.logger.Error("Failed to store download grant", zap.String("key_code", k.KeyCode), zap.Error(err))
		return nil, fmt.Errorf("%w: grant storage failed", ierr.ErrPersistence)
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn("Failed to load settings for download URL, using defaults", zap.Error(err))
		cfg = settings.Defaults()
	}

	metrics.DownloadsGranted.Inc()
	s.logger.Info("Download granted",
		zap.String("key_code", k.KeyCode),
		zap.Int("download_count", k.DownloadCount),
		zap.Int("max_downloads", k.MaxDownloads),
	)

	return &dto.DownloadGrantResponse{
		Token:              token,
		DownloadURL:        fmt.Sprintf("%s?token=%s", cfg.DownloadBaseURL, token),
		ExpiresAt:          now.Add(s.grantTTL),
		DownloadsRemaining: k.MaxDownloads - k.DownloadCount,
	}, nil
}
