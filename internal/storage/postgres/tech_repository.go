package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scosmb/license-console/internal/domain/tech"
	"go.uber.org/zap"
)

const techColumns = `
    id, username, email, password_hash, role, is_active,
    total_posts, total_solutions, created_at, last_login_at
`

type TechRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTechRepository(db *pgxpool.Pool, logger *zap.Logger) *TechRepository {
	return &TechRepository{
		db:     db,
		logger: logger.Named("TechRepository"),
	}
}

var _ tech.Repository = (*TechRepository)(nil)

func (r *TechRepository) Create(ctx context.Context, user *tech.User) (uuid.UUID, error) {
	query := `
        INSERT INTO tech_users (username, email, password_hash, role, is_active)
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
		r.logger.Error("Failed to create tech user in database", zap.String("username", user.Username), zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error creating tech user: %w", err)
	}
	return insertedID, nil
}

func (r *TechRepository) FindByID(ctx context.Context, id uuid.UUID) (*tech.User, error) {
	query := `SELECT ` + techColumns + ` FROM tech_users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *TechRepository) FindByUsername(ctx context.Context, username string) (*tech.User, error) {
	query := `SELECT ` + techColumns + ` FROM tech_users WHERE LOWER(username) = LOWER($1)`
	return r.scanUser(r.db.QueryRow(ctx, query, username))
}

func (r *TechRepository) List(ctx context.Context) ([]*tech.User, error) {
	query := `SELECT ` + techColumns + ` FROM tech_users ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query tech users", zap.Error(err))
		return nil, fmt.Errorf("database error listing tech users: %w", err)
	}
	defer rows.Close()

	users := make([]*tech.User, 0)
	for rows.Next() {
		var u tech.User
		err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
			&u.TotalPosts, &u.TotalSolutions, &u.CreatedAt, &u.LastLoginAt)
		if err != nil {
			r.logger.Error("Failed to scan tech user row", zap.Error(err))
			return nil, fmt.Errorf("database scan error listing tech users: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database iteration error listing tech users: %w", err)
	}
	return users, nil
}

func (r *TechRepository) Update(ctx context.Context, user *tech.User) error {
	query := `
        UPDATE tech_users SET
            email = $1, password_hash = $2, role = $3, is_active = $4,
            total_posts = $5, total_solutions = $6
        WHERE id = $7
    `
	cmdTag, err := r.db.Exec(ctx, query,
		user.Email, user.PasswordHash, user.Role, user.IsActive,
		user.TotalPosts, user.TotalSolutions, user.ID)
	if err != nil {
		r.logger.Error("Failed to update tech user", zap.String("id", user.ID.String()), zap.Error(err))
		return fmt.Errorf("database error updating tech user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return tech.ErrNotFound
	}
	return nil
}

func (r *TechRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM tech_users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete tech user", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("database error deleting tech user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return tech.ErrNotFound
	}
	return nil
}

func (r *TechRepository) scanUser(row pgx.Row) (*tech.User, error) {
	var u tech.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.TotalPosts, &u.TotalSolutions, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tech.ErrNotFound
		}
		r.logger.Error("Failed to scan tech user row", zap.Error(err))
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return &u, nil
}
