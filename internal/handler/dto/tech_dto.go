package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/scosmb/license-console/internal/domain/tech"
)

type CreateTechUserRequest struct {
	Username string    `json:"username" binding:"required,min=3,max=50"`
	Email    string    `json:"email" binding:"required,email"`
	Password string    `json:"password" binding:"required,min=8"`
	Role     tech.Role `json:"role" binding:"required,oneof=technician senior lead manager"`
}

type UpdateTechUserRequest struct {
	Email    *string    `json:"email" binding:"omitempty,email"`
	Password *string    `json:"password" binding:"omitempty,min=8"`
	Role     *tech.Role `json:"role" binding:"omitempty,oneof=technician senior lead manager"`
	IsActive *bool      `json:"is_active"`
}

type TechUserResponse struct {
	ID             uuid.UUID  `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Role           tech.Role  `json:"role"`
	IsActive       bool       `json:"is_active"`
	TotalPosts     int        `json:"total_posts"`
	TotalSolutions int        `json:"total_solutions"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

func NewTechUserResponse(u *tech.User) *TechUserResponse {
	return &TechUserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		IsActive:       u.IsActive,
		TotalPosts:     u.TotalPosts,
		TotalSolutions: u.TotalSolutions,
		CreatedAt:      u.CreatedAt,
		LastLoginAt:    u.LastLoginAt,
	}
}
