package domain

import "time"

// EmployeeStatus enumerates employment states.
type EmployeeStatus string

const (
	EmployeeStatusActive     EmployeeStatus = "ACTIVE"
	EmployeeStatusOnLeave    EmployeeStatus = "ON_LEAVE"
	EmployeeStatusTerminated EmployeeStatus = "TERMINATED"
)

// Valid reports whether s is a known status.
func (s EmployeeStatus) Valid() bool {
	switch s {
	case EmployeeStatusActive, EmployeeStatusOnLeave, EmployeeStatusTerminated:
		return true
	}
	return false
}

// Employee is a person assets can be deployed to.
type Employee struct {
	ID             string
	BusinessUnitID string
	DepartmentID   *string
	RoleID         *string
	EmployeeNumber string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Position       string
	HireDate       *time.Time
	Status         EmployeeStatus
	IsDeleted      bool
	DeletedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName joins first and last name.
func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}
