package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/scosmb/license-console/internal/domain/admin"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/ierr"
	"go.uber.org/zap"
)

type AdminService struct {
	repo   admin.Repository
	logger *zap.Logger
}

func NewAdminService(repo admin.Repository, logger *zap.Logger) *AdminService {
	return &AdminService{
		repo:   repo,
		logger: logger.Named("AdminService"),
	}
}

func (s *AdminService) CreateAdmin(ctx context.Context, caller *admin.User, req *dto.CreateAdminRequest) (*admin.User, error) {
	if !caller.Can(admin.ActionCreateAdmin) {
		return nil, ierr.ErrForbidden
	}

	newUser := &admin.User{
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
		s.logger.Error("Failed to create admin user", zap.String("username", req.Username), zap.Error(err))
		return nil, fmt.Errorf("repository error creating admin: %w", err)
	}

	created, err := s.repo.FindByID(ctx, insertedID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created admin (id: %s): %w", insertedID, err)
	}

	s.logger.Info("Admin user created",
		zap.String("username", created.Username),
		zap.String("role", string(created.Role)),
		zap.String("created_by", caller.Username),
	)
	return created, nil
}

func (s *AdminService) ListAdmins(ctx context.Context, caller *admin.User) ([]*admin.User, error) {
	if !caller.Can(admin.ActionListAdmins) {
		return nil, ierr.ErrForbidden
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list admin users", zap.Error(err))
		return nil, fmt.Errorf("repository error listing admins: %w", err)
	}
	return users, nil
}

// UpdateAdmin changes an admin account. Deactivating or demoting the last
// active super_admin is refused so the console stays administrable.
func (s *AdminService) UpdateAdmin(ctx context.Context, caller *admin.User, id uuid.UUID, req *dto.UpdateAdminRequest) (*admin.User, error) {
	if !caller.Can(admin.ActionUpdateAdmin) {
		return nil, ierr.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, admin.ErrNotFound) {
			return nil, ierr.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository error loading admin: %w", err)
	}

	deactivating := req.IsActive != nil && !*req.IsActive && user.IsActive
	demoting := req.Role != nil && *req.Role != admin.RoleSuperAdmin && user.Role == admin.RoleSuperAdmin
	if (deactivating || demoting) && user.Role == admin.RoleSuperAdmin && user.IsActive {
		if err := s.ensureNotLastSuperAdmin(ctx); err != nil {
			return nil, err
		}
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
		if errors.Is(err, admin.ErrLastSuperAdmin) {
			return nil, ierr.ErrLastAdmin
		}
		s.logger.Error("Failed to update admin user", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error updating admin: %w", err)
	}

	s.logger.Info("Admin user updated", zap.String("username", user.Username), zap.String("updated_by", caller.Username))
	return user, nil
}

func (s *AdminService) DeleteAdmin(ctx context.Context, caller *admin.User, id uuid.UUID) error {
	if !caller.Can(admin.ActionDeleteAdmin) {
		return ierr.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, admin.ErrNotFound) {
			return ierr.ErrUserNotFound
		}
		return fmt.Errorf("repository error loading admin: %w", err)
	}

	if user.Role == admin.RoleSuperAdmin && user.IsActive {
		if err := s.ensureNotLastSuperAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, admin.ErrLastSuperAdmin) {
			return ierr.ErrLastAdmin
		}
		s.logger.Error("Failed to delete admin user", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("repository error deleting admin: %w", err)
	}

	s.logger.Info("Admin user deleted", zap.String("username", user.Username), zap.String("deleted_by", caller.Username))
	return nil
}

// ensureNotLastSuperAdmin is the fast path; the repository re-enforces the
// same protection atomically with the mutation.
func (s *AdminService) ensureNotLastSuperAdmin(ctx context.Context) error {
	count, err := s.repo.CountActiveSuperAdmins(ctx)
	if err != nil {
		s.logger.Error("Failed to count active super admins", zap.Error(err))
		return fmt.Errorf("repository error counting super admins: %w", err)
	}
	if count <= 1 {
		return ierr.ErrLastAdmin
	}
	return nil
}
