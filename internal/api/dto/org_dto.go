package dto

import (
	"time"

	"github.com/assetdesk/asset-service/internal/domain"
)

// BusinessUnitRequest creates or replaces a business unit.
type BusinessUnitRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Code        string `json:"code" validate:"required,max=20,alphanum"`
	Description string `json:"description" validate:"max=1000"`
	IsActive    *bool  `json:"is_active"`
}

// BusinessUnitResponse payload.
type BusinessUnitResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleRequest creates or replaces a role.
type RoleRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Permissions []string `json:"permissions" validate:"dive,required"`
}

// RoleResponse payload.
type RoleResponse struct {
	ID             string    `json:"id"`
	BusinessUnitID string    `json:"business_unit_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Permissions    []string  `json:"permissions"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DepartmentRequest creates or replaces a department.
type DepartmentRequest struct {
	Name              string  `json:"name" validate:"required,max=200"`
	Description       string  `json:"description" validate:"max=1000"`
	ManagerEmployeeID *string `json:"manager_employee_id" validate:"omitempty,uuid"`
}

// DepartmentResponse payload.
type DepartmentResponse struct {
	ID                string    `json:"id"`
	BusinessUnitID    string    `json:"business_unit_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	ManagerEmployeeID *string   `json:"manager_employee_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// EmployeeRequest creates or replaces an employee.
type EmployeeRequest struct {
	DepartmentID   *string               `json:"department_id" validate:"omitempty,uuid"`
	RoleID         *string               `json:"role_id" validate:"omitempty,uuid"`
	EmployeeNumber string                `json:"employee_number" validate:"required,max=50"`
	FirstName      string                `json:"first_name" validate:"required,max=100"`
	LastName       string                `json:"last_name" validate:"max=100"`
	Email          string                `json:"email" validate:"omitempty,email"`
	Phone          string                `json:"phone" validate:"max=50"`
	Position       string                `json:"position" validate:"max=200"`
	HireDate       *Date                 `json:"hire_date"`
	Status         domain.EmployeeStatus `json:"status" validate:"omitempty,oneof=ACTIVE ON_LEAVE TERMINATED"`
}

// EmployeeResponse payload.
type EmployeeResponse struct {
	ID             string                `json:"id"`
	BusinessUnitID string                `json:"business_unit_id"`
	DepartmentID   *string               `json:"department_id"`
	RoleID         *string               `json:"role_id"`
	EmployeeNumber string                `json:"employee_number"`
	FirstName      string                `json:"first_name"`
	LastName       string                `json:"last_name"`
	FullName       string                `json:"full_name"`
	Email          string                `json:"email"`
	Phone          string                `json:"phone"`
	Position       string                `json:"position"`
	HireDate       *Date                 `json:"hire_date"`
	Status         domain.EmployeeStatus `json:"status"`
	IsDeleted      bool                  `json:"is_deleted"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}
