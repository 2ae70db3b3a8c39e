package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scosmb/license-console/internal/domain/key"
	"go.uber.org/zap"
)

const keyColumns = `
    id, key_code, status, download_count, max_downloads,
    customer_name, customer_email, customer_company,
    created_at, expires_at, last_used_at
`

type KeyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewKeyRepository(db *pgxpool.Pool, logger *zap.Logger) *KeyRepository {
	return &KeyRepository{
		db:     db,
		logger: logger.Named("KeyRepository"),
	}
}

var _ key.Repository = (*KeyRepository)(nil)

// CreateBatch inserts all keys inside one transaction; a failure on any row
// rolls back the whole batch.
func (r *KeyRepository) CreateBatch(ctx context.Context, keys []*key.Key) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin batch insert transaction", zap.Error(err))
		return fmt.Errorf("database error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO license_keys (
            key_code, status, download_count, max_downloads,
            customer_name, customer_email, customer_company, expires_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at
    `
	for _, k := range keys {
		err := tx.QueryRow(ctx, query,
			k.KeyCode,
			k.Status,
			k.DownloadCount,
			k.MaxDownloads,
			k.CustomerName,
			k.CustomerEmail,
			k.CustomerCompany,
			k.ExpiresAt,
		).Scan(&k.ID, &k.CreatedAt)
		if err != nil {
			r.logger.Error("Failed to insert key in batch", zap.String("key_code", k.KeyCode), zap.Error(err))
			return fmt.Errorf("database error on batch key insert: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit batch insert transaction", zap.Error(err))
		return fmt.Errorf("database error committing batch: %w", err)
	}

	r.logger.Info("Key batch inserted", zap.Int("count", len(keys)))
	return nil
}

func (r *KeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*key.Key, error) {
	query := `SELECT ` + keyColumns + ` FROM license_keys WHERE id = $1`
	return r.scanKey(r.db.QueryRow(ctx, query, id))
}

func (r *KeyRepository) FindByCode(ctx context.Context, code string) (*key.Key, error) {
	query := `SELECT ` + keyColumns + ` FROM license_keys WHERE key_code = $1`
	return r.scanKey(r.db.QueryRow(ctx, query, code))
}

var keySortColumns = map[string]string{
	"created_at":     "created_at",
	"expires_at":     "expires_at",
	"last_used_at":   "last_used_at",
	"download_count": "download_count",
	"key_code":       "key_code",
	"status":         "status",
}

func (r *KeyRepository) List(ctx context.Context, params key.ListParams) ([]*key.Key, int64, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *params.Status)
		argNum++
	}
	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(key_code ILIKE $%d OR customer_name ILIKE $%d OR customer_email ILIKE $%d OR customer_company ILIKE $%d)",
			argNum, argNum, argNum, argNum))
		args = append(args, "%"+params.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM license_keys` + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count license keys", zap.Error(err))
		return nil, 0, fmt.Errorf("database error counting keys: %w", err)
	}

	sortCol, ok := keySortColumns[params.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	sortOrder := "DESC"
	if strings.EqualFold(params.SortOrder, "ASC") {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM license_keys%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		keyColumns, whereClause, sortCol, sortOrder, argNum, argNum+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query license keys", zap.Error(err))
		return nil, 0, fmt.Errorf("database error listing keys: %w", err)
	}
	defer rows.Close()

	keys := make([]*key.Key, 0)
	for rows.Next() {
		var k key.Key
		if err := scanKeyFields(rows, &k); err != nil {
			r.logger.Error("Failed to scan key row during list", zap.Error(err))
			return nil, 0, fmt.Errorf("database scan error during list: %w", err)
		}
		keys = append(keys, &k)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating key rows", zap.Error(err))
		return nil, 0, fmt.Errorf("database iteration error listing keys: %w", err)
	}

	return keys, total, nil
}

func (r *KeyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status key.Status) error {
	query := `UPDATE license_keys SET status = $1 WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update key status", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("database error updating key status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return key.ErrNotFound
	}
	return nil
}

func (r *KeyRepository) UpdateCustomer(ctx context.Context, id uuid.UUID, upd key.CustomerUpdate) error {
	query := `
        UPDATE license_keys SET
            customer_name = COALESCE($1, customer_name),
            customer_email = COALESCE($2, customer_email),
            customer_company = COALESCE($3, customer_company)
        WHERE id = $4
    `
	cmdTag, err := r.db.Exec(ctx, query, upd.Name, upd.Email, upd.Company, id)
	if err != nil {
		r.logger.Error("Failed to update key customer fields", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("database error updating key customer: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return key.ErrNotFound
	}
	return nil
}

// RegisterDownload is the quota-critical conditional increment. The guards
// live in the WHERE clause so concurrent attempts serialize on the row and
// at most max_downloads of them ever succeed.
func (r *KeyRepository) RegisterDownload(ctx context.Context, code string, now time.Time) (*key.Key, error) {
	query := `
        UPDATE license_keys SET
            download_count = download_count + 1,
            last_used_at = $2,
            status = 'active'
        WHERE key_code = $1
          AND status IN ('unused', 'active')
          AND download_count < max_downloads
          AND (expires_at IS NULL OR expires_at > $2)
        RETURNING ` + keyColumns

	k, err := r.scanKey(r.db.QueryRow(ctx, query, code, now))
	if err != nil {
		if errors.Is(err, key.ErrNotFound) {
			return nil, key.ErrNotFound
		}
		r.logger.Error("Failed to register download", zap.String("key_code", code), zap.Error(err))
		return nil, fmt.Errorf("database error registering download: %w", err)
	}
	return k, nil
}

func (r *KeyRepository) ExpireDue(ctx context.Context, now time.Time, to key.Status, limit int) (int64, error) {
	query := `
        UPDATE license_keys SET status = $1
        WHERE id IN (
            SELECT id FROM license_keys
            WHERE status IN ('unused', 'active')
              AND expires_at IS NOT NULL AND expires_at <= $2
            ORDER BY expires_at ASC
            LIMIT $3
        )
    `
	cmdTag, err := r.db.Exec(ctx, query, to, now, limit)
	if err != nil {
		r.logger.Error("Failed to expire due keys", zap.Error(err))
		return 0, fmt.Errorf("database error expiring keys: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

func (r *KeyRepository) Counts(ctx context.Context, now time.Time, expiringWithin time.Duration) (*key.StatusCounts, error) {
	counts := &key.StatusCounts{ByStatus: make(map[key.Status]int64)}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*), COALESCE(SUM(download_count), 0) FROM license_keys GROUP BY status`)
	if err != nil {
		r.logger.Error("Failed to aggregate key status counts", zap.Error(err))
		return nil, fmt.Errorf("database error aggregating counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status key.Status
		var n, downloads int64
		if err := rows.Scan(&status, &n, &downloads); err != nil {
			return nil, fmt.Errorf("database scan error aggregating counts: %w", err)
		}
		counts.ByStatus[status] = n
		counts.Total += n
		counts.TotalDownloads += downloads
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database iteration error aggregating counts: %w", err)
	}

	expiryQuery := `
        SELECT COUNT(*) FROM license_keys
        WHERE status IN ('unused', 'active')
          AND expires_at IS NOT NULL
          AND expires_at > $1 AND expires_at <= $2
    `
	if err := r.db.QueryRow(ctx, expiryQuery, now, now.Add(expiringWithin)).Scan(&counts.ExpiringSoon); err != nil {
		r.logger.Error("Failed to count expiring keys", zap.Error(err))
		return nil, fmt.Errorf("database error counting expiring keys: %w", err)
	}

	return counts, nil
}

func (r *KeyRepository) scanKey(row pgx.Row) (*key.Key, error) {
	var k key.Key
	if err := scanKeyFields(row, &k); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, key.ErrNotFound
		}
		r.logger.Error("Failed to scan key row", zap.Error(err))
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return &k, nil
}

func scanKeyFields(row pgx.Row, k *key.Key) error {
	return row.Scan(
		&k.ID,
		&k.KeyCode,
		&k.Status,
		&k.DownloadCount,
		&k.MaxDownloads,
		&k.CustomerName,
		&k.CustomerEmail,
		&k.CustomerCompany,
		&k.CreatedAt,
		&k.ExpiresAt,
		&k.LastUsedAt,
	)
}
