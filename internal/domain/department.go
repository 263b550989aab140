package domain

import "time"

// Department represents an organizational unit inside a business unit.
type Department struct {
	ID                string
	BusinessUnitID    string
	Name              string
	Description       string
	ManagerEmployeeID *string
	IsDeleted         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
