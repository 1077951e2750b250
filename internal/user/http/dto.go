package http

import (
	"time"

	"github.com/nekogravitycat/campus-scheduler/internal/pkg/request"
	"github.com/nekogravitycat/campus-scheduler/internal/user"
)

// ListUsersRequest defines query parameters for listing users.
type ListUsersRequest struct {
	request.ListParams
	Email       string `form:"email"`
	DisplayName string `form:"display_name"`
	Role        string `form:"role" binding:"omitempty,user_role"`
	IsActive    *bool  `form:"is_active"`
	SortBy      string `form:"sort_by" binding:"omitempty,oneof=email display_name role created_at"`
}

// UserResponse is the shape of user data returned in API responses.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName *string    `json:"display_name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// NewUserResponse converts domain user.User to UserResponse used by the API.
func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// RegisterRequest defines the payload for user registration.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"max=120"`
}

// LoginRequest defines the payload for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest defines fields allowed to be updated via PATCH /users/:id.
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=120"`
	Role        *string `json:"role" binding:"omitempty,user_role"`
	IsActive    *bool   `json:"is_active"`
}

// LoginResponse returns the token and user info.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// MeResponse returns the current user info.
type MeResponse struct {
	User UserResponse `json:"user"`
}
