package key

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("license key not found")
	ErrUpdateFailed = errors.New("license key update failed")
)

type ListParams struct {
	Status    *Status
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// CustomerUpdate carries the editable customer fields. Nil means "leave as is".
type CustomerUpdate struct {
	Name    *string
	Email   *string
	Company *string
}

type StatusCounts struct {
	Total          int64
	ByStatus       map[Status]int64
	TotalDownloads int64
	ExpiringSoon   int64
}

type Repository interface {
	// CreateBatch persists all keys or none of them.
	CreateBatch(ctx context.Context, keys []*Key) error
	FindByID(ctx context.Context, id uuid.UUID) (*Key, error)
	FindByCode(ctx context.Context, code string) (*Key, error)
	List(ctx context.Context, params ListParams) ([]*Key, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateCustomer(ctx context.Context, id uuid.UUID, upd CustomerUpdate) error

	// RegisterDownload performs the atomic conditional increment: bump
	// download_count by one, set last_used_at and activate the key, but only
	// while the key is unused/active, unexpired at now, and under quota.
	// Returns the updated key, or ErrNotFound when no row qualified (the
	// caller re-reads the key to classify the refusal).
	RegisterDownload(ctx context.Context, code string, now time.Time) (*Key, error)

	// ExpireDue rewrites unused/active keys whose expires_at precedes now to
	// the given terminal status (expired, or revoked under the auto-revoke
	// policy). Returns the number of keys rewritten.
	ExpireDue(ctx context.Context, now time.Time, to Status, limit int) (int64, error)

	Counts(ctx context.Context, now time.Time, expiringWithin time.Duration) (*StatusCounts, error)
}
