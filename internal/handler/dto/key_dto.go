package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/scosmb/license-console/internal/domain/key"
)

type CustomerInfo struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Company *string `json:"company"`
}

type GenerateKeysRequest struct {
	Count        int           `json:"count" binding:"required,gte=1,lte=100"`
	MaxDownloads int           `json:"max_downloads" binding:"required,gte=1,lte=50"`
	Customer     *CustomerInfo `json:"customer"`
	ExpiresAt    *time.Time    `json:"expires_at" binding:"omitempty,gt"`
}

type KeyResponse struct {
	ID              uuid.UUID  `json:"id"`
	KeyCode         string     `json:"key_code"`
	Status          key.Status `json:"status"`
	DownloadCount   int        `json:"download_count"`
	MaxDownloads    int        `json:"max_downloads"`
	CustomerName    *string    `json:"customer_name,omitempty"`
	CustomerEmail   *string    `json:"customer_email,omitempty"`
	CustomerCompany *string    `json:"customer_company,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	LastUsedAt      *time.Time `json:"last_used_at,omitempty"`
}

// NewKeyResponse renders a key with its effective status, so a key past its
// expires_at reads as expired even before the stored row is rewritten.
func NewKeyResponse(k *key.Key, now time.Time) *KeyResponse {
	resp := &KeyResponse{
		ID:            k.ID,
		KeyCode:       k.KeyCode,
		Status:        k.EffectiveStatus(now),
		DownloadCount: k.DownloadCount,
		MaxDownloads:  k.MaxDownloads,
		CreatedAt:     k.CreatedAt,
	}
	if k.CustomerName.Valid {
		resp.CustomerName = &k.CustomerName.String
	}
	if k.CustomerEmail.Valid {
		resp.CustomerEmail = &k.CustomerEmail.String
	}
	if k.CustomerCompany.Valid {
		resp.CustomerCompany = &k.CustomerCompany.String
	}
	if k.ExpiresAt.Valid {
		resp.ExpiresAt = &k.ExpiresAt.Time
	}
	if k.LastUsedAt.Valid {
		resp.LastUsedAt = &k.LastUsedAt.Time
	}
	return resp
}

type ListKeysRequest struct {
	Status    *key.Status `form:"status" binding:"omitempty,oneof=unused active expired revoked"`
	Search    string      `form:"search"`
	Limit     int         `form:"limit,default=20" binding:"omitempty,gte=0,lte=500"`
	Offset    int         `form:"offset,default=0" binding:"omitempty,gte=0"`
	SortBy    string      `form:"sort_by,default=created_at" binding:"omitempty,oneof=created_at expires_at last_used_at download_count key_code status"`
	SortOrder string      `form:"sort_order,default=DESC" binding:"omitempty,oneof=ASC DESC"`
}

type PaginatedKeysResponse struct {
	Keys       []*KeyResponse `json:"keys"`
	TotalCount int64          `json:"totalCount"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

type RevokeKeyRequest struct {
	KeyCode string `json:"key_code" binding:"required"`
}

type UpdateKeyCustomerRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Company *string `json:"company"`
}

type DownloadRequest struct {
	KeyCode string `json:"key_code" binding:"required"`
}

type DownloadGrantResponse struct {
	Token              string    `json:"token"`
	DownloadURL        string    `json:"download_url"`
	ExpiresAt          time.Time `json:"expires_at"`
	DownloadsRemaining int       `json:"downloads_remaining"`
}

type RedeemGrantResponse struct {
	Token   string `json:"token"`
	KeyCode string `json:"key_code"`
}
