package domain

import "time"

// BusinessUnit is the tenant partition every record is scoped to.
type BusinessUnit struct {
	ID          string
	Name        string
	Code        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
