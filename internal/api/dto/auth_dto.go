package dto

import "time"

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the access token and the signed-in user.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// UserRequest creates or replaces an application account.
type UserRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"omitempty,min=8,max=128"`
	RoleID   *string `json:"role_id" validate:"omitempty,uuid"`
	IsActive *bool   `json:"is_active"`
}

// UserResponse describes an account without its credentials.
type UserResponse struct {
	ID             string     `json:"id"`
	BusinessUnitID string     `json:"business_unit_id"`
	RoleID         *string    `json:"role_id"`
	RoleName       string     `json:"role_name,omitempty"`
	Permissions    []string   `json:"permissions,omitempty"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	IsActive       bool       `json:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
