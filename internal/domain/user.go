package domain

import "time"

// User is an application account that signs in and operates on a business unit.
type User struct {
	ID             string
	BusinessUnitID string
	RoleID         *string
	Name           string
	Email          string
	PasswordHash   string
	IsActive       bool
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
