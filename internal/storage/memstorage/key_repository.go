package memstorage

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scosmb/license-console/internal/domain/key"
)

// KeyRepository is an in-memory key.Repository used in tests. The mutex
// gives RegisterDownload the same atomic increment-and-check semantics the
// conditional UPDATE provides in postgres.
type KeyRepository struct {
	mu   sync.RWMutex
	keys map[uuid.UUID]*key.Key
}

func NewKeyRepository() *KeyRepository {
	return &KeyRepository{
		keys: make(map[uuid.UUID]*key.Key),
	}
}

var _ key.Repository = (*KeyRepository)(nil)

func (r *KeyRepository) CreateBatch(_ context.Context, keys []*key.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, k := range keys {
		k.ID = uuid.New()
		k.CreatedAt = now
	}
	for _, k := range keys {
		copied := *k
		r.keys[k.ID] = &copied
	}
	return nil
}

func (r *KeyRepository) FindByID(_ context.Context, id uuid.UUID) (*key.Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.keys[id]
	if !ok {
		return nil, key.ErrNotFound
	}
	copied := *k
	return &copied, nil
}

func (r *KeyRepository) FindByCode(_ context.Context, code string) (*key.Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k := r.findByCodeLocked(code)
	if k == nil {
		return nil, key.ErrNotFound
	}
	copied := *k
	return &copied, nil
}

func (r *KeyRepository) List(_ context.Context, params key.ListParams) ([]*key.Key, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*key.Key, 0, len(r.keys))
	for _, k := range r.keys {
		if params.Status != nil && k.Status != *params.Status {
			continue
		}
		if params.Search != "" && !matchesSearch(k, params.Search) {
			continue
		}
		copied := *k
		matched = append(matched, &copied)
	}

	sortKeys(matched, params.SortBy, params.SortOrder)

	total := int64(len(matched))
	if params.Offset >= len(matched) {
		return []*key.Key{}, total, nil
	}
	matched = matched[params.Offset:]
	if params.Limit > 0 && params.Limit < len(matched) {
		matched = matched[:params.Limit]
	}
	return matched, total, nil
}

func (r *KeyRepository) UpdateStatus(_ context.Context, id uuid.UUID, status key.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.keys[id]
	if !ok {
		return key.ErrNotFound
	}
	k.Status = status
	return nil
}

func (r *KeyRepository) UpdateCustomer(_ context.Context, id uuid.UUID, upd key.CustomerUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.keys[id]
	if !ok {
		return key.ErrNotFound
	}
	if upd.Name != nil {
		k.CustomerName = sql.NullString{String: *upd.Name, Valid: true}
	}
	if upd.Email != nil {
		k.CustomerEmail = sql.NullString{String: *upd.Email, Valid: true}
	}
	if upd.Company != nil {
		k.CustomerCompany = sql.NullString{String: *upd.Company, Valid: true}
	}
	return nil
}

func (r *KeyRepository) RegisterDownload(_ context.Context, code string, now time.Time) (*key.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := r.findByCodeLocked(code)
	if k == nil {
		return nil, key.ErrNotFound
	}
	if !k.Downloadable(now) {
		// Same contract as the SQL conditional update: no qualifying row.
		return nil, key.ErrNotFound
	}

	k.DownloadCount++
	k.LastUsedAt = sql.NullTime{Time: now, Valid: true}
	k.Status = key.StatusActive

	copied := *k
	return &copied, nil
}

func (r *KeyRepository) ExpireDue(_ context.Context, now time.Time, to key.Status, limit int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, k := range r.keys {
		if limit > 0 && n >= int64(limit) {
			break
		}
		if (k.Status == key.StatusUnused || k.Status == key.StatusActive) &&
			k.ExpiresAt.Valid && !k.ExpiresAt.Time.After(now) {
			k.Status = to
			n++
		}
	}
	return n, nil
}

func (r *KeyRepository) Counts(_ context.Context, now time.Time, expiringWithin time.Duration) (*key.StatusCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := &key.StatusCounts{ByStatus: make(map[key.Status]int64)}
	deadline := now.Add(expiringWithin)
	for _, k := range r.keys {
		counts.ByStatus[k.Status]++
		counts.Total++
		counts.TotalDownloads += int64(k.DownloadCount)
		if (k.Status == key.StatusUnused || k.Status == key.StatusActive) &&
			k.ExpiresAt.Valid && k.ExpiresAt.Time.After(now) && !k.ExpiresAt.Time.After(deadline) {
			counts.ExpiringSoon++
		}
	}
	return counts, nil
}

func (r *KeyRepository) findByCodeLocked(code string) *key.Key {
	for _, k := range r.keys {
		if k.KeyCode == code {
			return k
		}
	}
	return nil
}

func matchesSearch(k *key.Key, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(k.KeyCode), needle) {
		return true
	}
	if k.CustomerName.Valid && strings.Contains(strings.ToLower(k.CustomerName.String), needle) {
		return true
	}
	if k.CustomerEmail.Valid && strings.Contains(strings.ToLower(k.CustomerEmail.String), needle) {
		return true
	}
	if k.CustomerCompany.Valid && strings.Contains(strings.ToLower(k.CustomerCompany.String), needle) {
		return true
	}
	return false
}

func sortKeys(keys []*key.Key, sortBy, sortOrder string) {
	less := func(a, b *key.Key) bool {
		switch sortBy {
		case "key_code":
			return a.KeyCode < b.KeyCode
		case "download_count":
			return a.DownloadCount < b.DownloadCount
		case "status":
			return a.Status < b.Status
		case "expires_at":
			return a.ExpiresAt.Time.Before(b.ExpiresAt.Time)
		case "last_used_at":
			return a.LastUsedAt.Time.Before(b.LastUsedAt.Time)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if strings.EqualFold(sortOrder, "ASC") {
			return less(keys[i], keys[j])
		}
		return less(keys[j], keys[i])
	})
}
