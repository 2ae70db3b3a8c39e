package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/scosmb/license-console/internal/domain/admin"
	"github.com/scosmb/license-console/internal/domain/tech"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/ierr"
	"go.uber.org/zap"
)

type TechService struct {
	repo   tech.Repository
	logger *zap.Logger
}

func NewTechService(repo tech.Repository, logger *zap.Logger) *TechService {
	return &TechService{
		repo:   repo,
		logger: logger.Named("TechService"),
	}
}

func (s *TechService) CreateTechUser(ctx context.Context, caller *admin.User, req *dto.CreateTechUserRequest) (*tech.User, error) {
	if !caller.Can(admin.ActionManageTechUser) {
		return nil, ierr.ErrForbidden
	}

	newUser := &tech.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
		IsActive: true,
	}
	if err := newUser.SetPassword(req.Password); err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("%w: password hashing failed", ierr.ErrInternalServer)
	}

	insertedID, err := s.repo.Create(ctx, newUser)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: username or email already taken", ierr.ErrConflict)
		}
		s.logger.Error("Failed to create tech user", zap.String("username", req.Username), zap.Error(err))
		return nil, fmt.Errorf("repository error creating tech user: %w", err)
	}

	created, err := s.repo.FindByID(ctx, insertedID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created tech user (id: %s): %w", insertedID, err)
	}

	s.logger.Info("Tech user created", zap.String("username", created.Username), zap.String("created_by", caller.Username))
	return created, nil
}

func (s *TechService) ListTechUsers(ctx context.Context, caller *admin.User) ([]*tech.User, error) {
	if !caller.Can(admin.ActionManageTechUser) {
		return nil, ierr.ErrForbidden
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list tech users", zap.Error(err))
		return nil, fmt.Errorf("repository error listing tech users: %w", err)
	}
	return users, nil
}

func (s *TechService) UpdateTechUser(ctx context.Context, caller *admin.User, id uuid.UUID, req *dto.UpdateTechUserRequest) (*tech.User, error) {
	if !caller.Can(admin.ActionManageTechUser) {
		return nil, ierr.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, tech.ErrNotFound) {
			return nil, ierr.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository error loading tech user: %w", err)
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			s.logger.Error("Failed to hash new password", zap.Error(err))
			return nil, fmt.Errorf("%w: password hashing failed", ierr.ErrInternalServer)
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update tech user", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error updating tech user: %w", err)
	}

	s.logger.Info("Tech user updated", zap.String("username", user.Username), zap.String("updated_by", caller.Username))
	return user, nil
}

func (s *TechService) DeleteTechUser(ctx context.Context, caller *admin.User, id uuid.UUID) error {
	if !caller.Can(admin.ActionManageTechUser) {
		return ierr.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, tech.ErrNotFound) {
			return ierr.ErrUserNotFound
		}
		s.logger.Error("Failed to delete tech user", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("repository error deleting tech user: %w", err)
	}

	s.logger.Info("Tech user deleted", zap.String("id", id.String()), zap.String("deleted_by", caller.Username))
	return nil
}
