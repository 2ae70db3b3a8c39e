package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scosmb/license-console/internal/domain/admin"
	"go.uber.org/zap"
)

const adminColumns = `
    id, username, email, password_hash, role, is_active, created_at, last_login_at
`

type AdminRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAdminRepository(db *pgxpool.Pool, logger *zap.Logger) *AdminRepository {
	return &AdminRepository{
		db:     db,
		logger: logger.Named("AdminRepository"),
	}
}

var _ admin.Repository = (*AdminRepository)(nil)

func (r *AdminRepository) Create(ctx context.Context, user *admin.User) (uuid.UUID, error) {
	query := `
        INSERT INTO admin_users (username, email, password_hash, role, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	var insertedID uuid.UUID
	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
	).Scan(&insertedID)
	if err != nil {
		r.logger.Error("Failed to create admin user in database", zap.String("username", user.Username), zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error creating admin user: %w", err)
	}
	return insertedID, nil
}

func (r *AdminRepository) FindByID(ctx context.Context, id uuid.UUID) (*admin.User, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*admin.User, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE LOWER(username) = LOWER($1)`
	return r.scanUser(r.db.QueryRow(ctx, query, username))
}

func (r *AdminRepository) List(ctx context.Context) ([]*admin.User, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query admin users", zap.Error(err))
		return nil, fmt.Errorf("database error listing admin users: %w", err)
	}
	defer rows.Close()

	users := make([]*admin.User, 0)
	for rows.Next() {
		var u admin.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.LastLoginAt); err != nil {
			r.logger.Error("Failed to scan admin user row", zap.Error(err))
			return nil, fmt.Errorf("database scan error listing admin users: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database iteration error listing admin users: %w", err)
	}
	return users, nil
}

// Update runs inside a transaction that row-locks the active super_admins, so
// two concurrent demotions of the last two cannot both pass the guard.
func (r *AdminRepository) Update(ctx context.Context, user *admin.User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin admin update transaction", zap.Error(err))
		return fmt.Errorf("database error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	losesSuperAdmin := user.Role != admin.RoleSuperAdmin || !user.IsActive
	if err := r.guardLastSuperAdmin(ctx, tx, user.ID, losesSuperAdmin); err != nil {
		return err
	}

	query := `
        UPDATE admin_users SET
            email = $1, password_hash = $2, role = $3, is_active = $4
        WHERE id = $5
    `
	cmdTag, err := tx.Exec(ctx, query, user.Email, user.PasswordHash, user.Role, user.IsActive, user.ID)
	if err != nil {
		r.logger.Error("Failed to update admin user", zap.String("id", user.ID.String()), zap.Error(err))
		return fmt.Errorf("database error updating admin user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return admin.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database error committing admin update: %w", err)
	}
	return nil
}

func (r *AdminRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin admin delete transaction", zap.Error(err))
		return fmt.Errorf("database error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.guardLastSuperAdmin(ctx, tx, id, true); err != nil {
		return err
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete admin user", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("database error deleting admin user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return admin.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database error committing admin delete: %w", err)
	}
	return nil
}

// guardLastSuperAdmin blocks a mutation that would leave zero active
// super_admins. It locks the target row and, when the target is an active
// super_admin about to lose that standing, every other active super_admin
// row, so concurrent guarded mutations serialize instead of racing the count.
func (r *AdminRepository) guardLastSuperAdmin(ctx context.Context, tx pgx.Tx, id uuid.UUID, losesSuperAdmin bool) error {
	var role admin.Role
	var isActive bool
	err := tx.QueryRow(ctx, `SELECT role, is_active FROM admin_users WHERE id = $1 FOR UPDATE`, id).Scan(&role, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return admin.ErrNotFound
		}
		return fmt.Errorf("database error locking admin user: %w", err)
	}

	if role != admin.RoleSuperAdmin || !isActive || !losesSuperAdmin {
		return nil
	}

	var others int64
	err = tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM (
            SELECT id FROM admin_users
            WHERE role = 'super_admin' AND is_active = TRUE AND id <> $1
            FOR UPDATE
        ) remaining
    `, id).Scan(&others)
	if err != nil {
		return fmt.Errorf("database error locking super admins: %w", err)
	}
	if others == 0 {
		return admin.ErrLastSuperAdmin
	}
	return nil
}

func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE admin_users SET last_login_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("database error updating last login: %w", err)
	}
	return nil
}

func (r *AdminRepository) CountActiveSuperAdmins(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM admin_users WHERE role = 'super_admin' AND is_active = TRUE`
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		r.logger.Error("Failed to count active super admins", zap.Error(err))
		return 0, fmt.Errorf("database error counting super admins: %w", err)
	}
	return count, nil
}

func (r *AdminRepository) scanUser(row pgx.Row) (*admin.User, error) {
	var u admin.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, admin.ErrNotFound
		}
		r.logger.Error("Failed to scan admin user row", zap.Error(err))
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return &u, nil
}
