package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/scosmb/license-console/internal/domain/admin"
)

type CreateAdminRequest struct {
	Username string     `json:"username" binding:"required,min=3,max=50"`
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=8"`
	Role     admin.Role `json:"role" binding:"required,oneof=admin super_admin"`
}

type UpdateAdminRequest struct {
	Email    *string     `json:"email" binding:"omitempty,email"`
	Password *string     `json:"password" binding:"omitempty,min=8"`
	Role     *admin.Role `json:"role" binding:"omitempty,oneof=admin super_admin"`
	IsActive *bool       `json:"is_active"`
}

type AdminResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        admin.Role `json:"role"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func NewAdminResponse(u *admin.User) *AdminResponse {
	return &AdminResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
