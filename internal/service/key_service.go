package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/scosmb/license-console/internal/domain/admin"
	"github.com/scosmb/license-console/internal/domain/key"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/ierr"
	"github.com/scosmb/license-console/internal/metrics"
	"github.com/scosmb/license-console/internal/util"
	"go.uber.org/zap"
)

const (
	maxBatchSize    = 100
	maxKeyDownloads = 50

	expiringSoonWindow = 30 * 24 * time.Hour
)

type KeyService struct {
	repo   key.Repository
	logger *zap.Logger
}

func NewKeyService(repo key.Repository, logger *zap.Logger) *KeyService {
	return &KeyService{
		repo:   repo,
		logger: logger.Named("KeyService"),
	}
}

// GenerateKeys creates a batch of fresh license keys. The batch is persisted
// atomically: either every key lands or none do.
func (s *KeyService) GenerateKeys(ctx context.Context, caller *admin.User, req *dto.GenerateKeysRequest) ([]*key.Key, error) {
	if !caller.Can(admin.ActionGenerateKeys) {
		return nil, ierr.ErrForbidden
	}

	if req.Count < 1 || req.Count > maxBatchSize {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ierr.ErrInvalidRequest, maxBatchSize)
	}
	if req.MaxDownloads < 1 || req.MaxDownloads > maxKeyDownloads {
		return nil, fmt.Errorf("%w: max_downloads must be between 1 and %d", ierr.ErrInvalidRequest, maxKeyDownloads)
	}

	s.logger.Info("Generating license key batch",
		zap.String("requested_by", caller.Username),
		zap.Int("count", req.Count),
		zap.Int("max_downloads", req.MaxDownloads),
	)

	keys := make([]*key.Key, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		code, err := util.GenerateKeyCode()
		if err != nil {
			s.logger.Error("Failed to generate key code", zap.Error(err))
			return nil, fmt.Errorf("%w: key code generation failed", ierr.ErrInternalServer)
		}

		k := &key.Key{
			KeyCode:      code,
			Status:       key.StatusUnused,
			MaxDownloads: req.MaxDownloads,
		}
		if req.Customer != nil {
			if req.Customer.Name != nil {
				k.CustomerName = sql.NullString{String: *req.Customer.Name, Valid: true}
			}
			if req.Customer.Email != nil {
				k.CustomerEmail = sql.NullString{String: *req.Customer.Email, Valid: true}
			}
			if req.Customer.Company != nil {
				k.CustomerCompany = sql.NullString{String: *req.Customer.Company, Valid: true}
			}
		}
		if req.ExpiresAt != nil {
			k.ExpiresAt = sql.NullTime{Time: *req.ExpiresAt, Valid: true}
		}
		keys = append(keys, k)
	}

	if err := s.repo.CreateBatch(ctx, keys); err != nil {
		s.logger.Error("Failed to persist key batch", zap.Int("count", len(keys)), zap.Error(err))
		return nil, fmt.Errorf("repository error during key generation: %w", err)
	}

	metrics.KeysGenerated.Add(float64(len(keys)))
	s.logger.Info("License key batch created", zap.Int("count", len(keys)))
	return keys, nil
}

func (s *KeyService) ListKeys(ctx context.Context, caller *admin.User, req *dto.ListKeysRequest) ([]*key.Key, int64, error) {
	if !caller.Can(admin.ActionListKeys) {
		return nil, 0, ierr.ErrForbidden
	}

	params := key.ListParams{
		Status:    req.Status,
		Search:    req.Search,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}

	keys, total, err := s.repo.List(ctx, params)
	if err != nil {
		s.logger.Error("Failed to list license keys", zap.Error(err))
		return nil, 0, fmt.Errorf("repository error listing keys: %w", err)
	}
	return keys, total, nil
}

// RevokeKey marks a key revoked. Revoking an already revoked key is an
// idempotent no-op returning the current record.
func (s *KeyService) RevokeKey(ctx context.Context, caller *admin.User, keyCode string) (*key.Key, error) {
	if !caller.Can(admin.ActionRevokeKey) {
		return nil, ierr.ErrForbidden
	}

	k, err := s.repo.FindByCode(ctx, keyCode)
	if err != nil {
		if errors.Is(err, key.ErrNotFound) {
			return nil, ierr.ErrKeyNotFound
		}
		s.logger.Error("Failed to load key for revocation", zap.String("key_code", keyCode), zap.Error(err))
		return nil, fmt.Errorf("repository error loading key: %w", err)
	}

	if !k.Revocable() {
		s.logger.Info("Revoke requested for already revoked key", zap.String("key_code", keyCode))
		return k, nil
	}

	if err := s.repo.UpdateStatus(ctx, k.ID, key.StatusRevoked); err != nil {
		s.logger.Error("Failed to revoke key", zap.String("key_code", keyCode), zap.Error(err))
		return nil, fmt.Errorf("repository error revoking key: %w", err)
	}

	k.Status = key.StatusRevoked
	metrics.KeysRevoked.Inc()
	s.logger.Info("License key revoked", zap.String("key_code", keyCode), zap.String("revoked_by", caller.Username))
	return k, nil
}

// UpdateKeyCustomer edits the customer metadata attached to a key. Customer
// fields never affect the lifecycle.
func (s *KeyService) UpdateKeyCustomer(ctx context.Context, caller *admin.User, keyCode string, req *dto.UpdateKeyCustomerRequest) (*key.Key, error) {
	if !caller.Can(admin.ActionEditKey) {
		return nil, ierr.ErrForbidden
	}

	k, err := s.repo.FindByCode(ctx, keyCode)
	if err != nil {
		if errors.Is(err, key.ErrNotFound) {
			return nil, ierr.ErrKeyNotFound
		}
		return nil, fmt.Errorf("repository error loading key: %w", err)
	}

	upd := key.CustomerUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
	}
	if err := s.repo.UpdateCustomer(ctx, k.ID, upd); err != nil {
		s.logger.Error("Failed to update key customer metadata", zap.String("key_code", keyCode), zap.Error(err))
		return nil, fmt.Errorf("repository error updating key: %w", err)
	}

	return s.repo.FindByCode(ctx, keyCode)
}

func (s *KeyService) GetDashboardSummary(ctx context.Context, caller *admin.User) (*dto.DashboardSummaryResponse, error) {
	if !caller.Can(admin.ActionViewDashboard) {
		return nil, ierr.ErrForbidden
	}

	counts, err := s.repo.Counts(ctx, time.Now().UTC(), expiringSoonWindow)
	if err != nil {
		s.logger.Error("Failed to aggregate key counts", zap.Error(err))
		return nil, fmt.Errorf("repository error aggregating counts: %w", err)
	}

	return &dto.DashboardSummaryResponse{
		TotalKeys:      counts.Total,
		StatusCounts:   counts.ByStatus,
		TotalDownloads: counts.TotalDownloads,
		ExpiringSoon: dto.ExpiringSoonSummary{
			Count:      counts.ExpiringSoon,
			PeriodDays: int(expiringSoonWindow.Hours() / 24),
		},
	}, nil
}
