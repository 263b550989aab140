package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/assetdesk/asset-service/internal/domain"
)

// DeployRequest payload.
type DeployRequest struct {
	AssetID            string `json:"asset_id" validate:"required,uuid"`
	EmployeeID         string `json:"employee_id" validate:"required,uuid"`
	ExpectedReturnDate *Date  `json:"expected_return_date"`
	Notes              string `json:"notes" validate:"max=2000"`
}

// ReturnRequest payload.
type ReturnRequest struct {
	Condition *domain.AssetCondition `json:"condition" validate:"omitempty,oneof=NEW GOOD FAIR POOR DAMAGED"`
	Notes     string                 `json:"notes" validate:"max=2000"`
}

// DeploymentResponse payload.
type DeploymentResponse struct {
	ID                 string                  `json:"id"`
	BusinessUnitID     string                  `json:"business_unit_id"`
	AssetID            string                  `json:"asset_id"`
	EmployeeID         string                  `json:"employee_id"`
	DeployedBy         *string                 `json:"deployed_by"`
	DeployedAt         time.Time               `json:"deployed_at"`
	ExpectedReturnDate *Date                   `json:"expected_return_date"`
	ReturnedAt         *time.Time              `json:"returned_at"`
	ReturnCondition    *domain.AssetCondition  `json:"return_condition"`
	Status             domain.DeploymentStatus `json:"status"`
	Overdue            bool                    `json:"overdue"`
	Notes              string                  `json:"notes"`
}

// TransferDestination is shared by single and bulk transfer requests.
type TransferDestination struct {
	ToDepartmentID   *string `json:"to_department_id" validate:"omitempty,uuid"`
	ToLocation       string  `json:"to_location" validate:"max=200"`
	ToBusinessUnitID *string `json:"to_business_unit_id" validate:"omitempty,uuid"`
	Reason           string  `json:"reason" validate:"max=1000"`
	Notes            string  `json:"notes" validate:"max=2000"`
}

// TransferRequest payload.
type TransferRequest struct {
	AssetID string `json:"asset_id" validate:"required,uuid"`
	TransferDestination
}

// BulkTransferRequest payload.
type BulkTransferRequest struct {
	AssetIDs []string `json:"asset_ids" validate:"required,min=1,max=100,dive,uuid"`
	TransferDestination
}

// TransferResponse payload.
type TransferResponse struct {
	ID               string                `json:"id"`
	BusinessUnitID   string                `json:"business_unit_id"`
	AssetID          string                `json:"asset_id"`
	FromDepartmentID *string               `json:"from_department_id"`
	ToDepartmentID   *string               `json:"to_department_id"`
	FromLocation     string                `json:"from_location"`
	ToLocation       string                `json:"to_location"`
	ToBusinessUnitID *string               `json:"to_business_unit_id"`
	Status           domain.TransferStatus `json:"status"`
	Reason           string                `json:"reason"`
	RequestedBy      *string               `json:"requested_by"`
	CompletedBy      *string               `json:"completed_by"`
	TransferDate     *time.Time            `json:"transfer_date"`
	Notes            string                `json:"notes"`
	CreatedAt        time.Time             `json:"created_at"`
}

// RetireRequest payload.
type RetireRequest struct {
	AssetID        string `json:"asset_id" validate:"required,uuid"`
	Reason         string `json:"reason" validate:"required,max=1000"`
	RetirementDate *Date  `json:"retirement_date"`
	Notes          string `json:"notes" validate:"max=2000"`
}

// RetirementResponse payload.
type RetirementResponse struct {
	ID                    string          `json:"id"`
	BusinessUnitID        string          `json:"business_unit_id"`
	AssetID               string          `json:"asset_id"`
	RetirementDate        Date            `json:"retirement_date"`
	Reason                string          `json:"reason"`
	BookValueAtRetirement decimal.Decimal `json:"book_value_at_retirement"`
	RetiredBy             *string         `json:"retired_by"`
	Notes                 string          `json:"notes"`
	CreatedAt             time.Time       `json:"created_at"`
}

// DisposalDetails is shared by single and bulk disposal requests.
type DisposalDetails struct {
	Method        domain.DisposalMethod `json:"method" validate:"required,oneof=SALE DONATION RECYCLE DESTROY TRADE_IN"`
	DisposalValue decimal.Decimal       `json:"disposal_value"`
	DisposalDate  *Date                 `json:"disposal_date"`
	Recipient     string                `json:"recipient" validate:"max=200"`
	Notes         string                `json:"notes" validate:"max=2000"`
}

// DisposeRequest payload.
type DisposeRequest struct {
	AssetID string `json:"asset_id" validate:"required,uuid"`
	DisposalDetails
}

// BulkDisposeRequest payload.
type BulkDisposeRequest struct {
	AssetIDs []string `json:"asset_ids" validate:"required,min=1,max=100,dive,uuid"`
	DisposalDetails
}

// DisposalResponse payload.
type DisposalResponse struct {
	ID                  string                `json:"id"`
	BusinessUnitID      string                `json:"business_unit_id"`
	AssetID             string                `json:"asset_id"`
	DisposalDate        Date                  `json:"disposal_date"`
	Method              domain.DisposalMethod `json:"method"`
	DisposalValue       decimal.Decimal       `json:"disposal_value"`
	BookValueAtDisposal decimal.Decimal       `json:"book_value_at_disposal"`
	GainLoss            decimal.Decimal       `json:"gain_loss"`
	Recipient           string                `json:"recipient"`
	DisposedBy          *string               `json:"disposed_by"`
	Notes               string                `json:"notes"`
	CreatedAt           time.Time             `json:"created_at"`
}

// MaintenanceRequest schedules work.
type MaintenanceRequest struct {
	AssetID       string                 `json:"asset_id" validate:"required,uuid"`
	Type          domain.MaintenanceType `json:"maintenance_type" validate:"required,oneof=PREVENTIVE CORRECTIVE UPGRADE INSPECTION"`
	ScheduledDate *Date                  `json:"scheduled_date"`
	Description   string                 `json:"description" validate:"max=2000"`
	Vendor        string                 `json:"vendor" validate:"max=200"`
	Cost          decimal.Decimal        `json:"cost"`
	PerformedBy   string                 `json:"performed_by" validate:"max=200"`
}

// CompleteMaintenanceRequest closes running work.
type CompleteMaintenanceRequest struct {
	Cost        *decimal.Decimal `json:"cost"`
	PerformedBy string           `json:"performed_by" validate:"max=200"`
	Description string           `json:"description" validate:"max=2000"`
}

// MaintenanceResponse payload.
type MaintenanceResponse struct {
	ID              string                   `json:"id"`
	BusinessUnitID  string                   `json:"business_unit_id"`
	AssetID         string                   `json:"asset_id"`
	MaintenanceType domain.MaintenanceType   `json:"maintenance_type"`
	Status          domain.MaintenanceStatus `json:"status"`
	ScheduledDate   Date                     `json:"scheduled_date"`
	StartedAt       *time.Time               `json:"started_at"`
	CompletedAt     *time.Time               `json:"completed_at"`
	Cost            decimal.Decimal          `json:"cost"`
	Vendor          string                   `json:"vendor"`
	Description     string                   `json:"description"`
	PerformedBy     string                   `json:"performed_by"`
	CreatedBy       *string                  `json:"created_by"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}
