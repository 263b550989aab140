package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeploymentStatus enumerates deployment states.
type DeploymentStatus string

const (
	DeploymentStatusActive   DeploymentStatus = "ACTIVE"
	DeploymentStatusReturned DeploymentStatus = "RETURNED"
)

// AssetDeployment assigns an asset to an employee for a period.
type AssetDeployment struct {
	ID                 string
	BusinessUnitID     string
	AssetID            string
	EmployeeID         string
	DeployedBy         *string
	DeployedAt         time.Time
	ExpectedReturnDate *time.Time
	ReturnedAt         *time.Time
	ReturnCondition    *AssetCondition
	Status             DeploymentStatus
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Overdue reports whether an active deployment is past its expected return date.
func (d *AssetDeployment) Overdue(now time.Time) bool {
	return d.Status == DeploymentStatusActive && d.ExpectedReturnDate != nil && d.ExpectedReturnDate.Before(now)
}

// TransferStatus enumerates transfer states.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusCompleted TransferStatus = "COMPLETED"
	TransferStatusCancelled TransferStatus = "CANCELLED"
)

// AssetTransfer relocates an asset between departments, locations or business units.
type AssetTransfer struct {
	ID               string
	BusinessUnitID   string
	AssetID          string
	FromDepartmentID *string
	ToDepartmentID   *string
	FromLocation     string
	ToLocation       string
	ToBusinessUnitID *string
	Status           TransferStatus
	Reason           string
	RequestedBy      *string
	CompletedBy      *string
	TransferDate     *time.Time
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AssetRetirement records an asset leaving active service.
type AssetRetirement struct {
	ID                    string
	BusinessUnitID        string
	AssetID               string
	RetirementDate        time.Time
	Reason                string
	BookValueAtRetirement decimal.Decimal
	RetiredBy             *string
	Notes                 string
	CreatedAt             time.Time
}

// DisposalMethod enumerates how an asset left the organization.
type DisposalMethod string

const (
	DisposalSale     DisposalMethod = "SALE"
	DisposalDonation DisposalMethod = "DONATION"
	DisposalRecycle  DisposalMethod = "RECYCLE"
	DisposalDestroy  DisposalMethod = "DESTROY"
	DisposalTradeIn  DisposalMethod = "TRADE_IN"
)

// Valid reports whether m is a known disposal method.
func (m DisposalMethod) Valid() bool {
	switch m {
	case DisposalSale, DisposalDonation, DisposalRecycle, DisposalDestroy, DisposalTradeIn:
		return true
	}
	return false
}

// AssetDisposal is the terminal lifecycle record of an asset.
type AssetDisposal struct {
	ID                  string
	BusinessUnitID      string
	AssetID             string
	DisposalDate        time.Time
	Method              DisposalMethod
	DisposalValue       decimal.Decimal
	BookValueAtDisposal decimal.Decimal
	GainLoss            decimal.Decimal
	Recipient           string
	DisposedBy          *string
	Notes               string
	CreatedAt           time.Time
}

// MaintenanceType classifies maintenance work.
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "PREVENTIVE"
	MaintenanceCorrective MaintenanceType = "CORRECTIVE"
	MaintenanceUpgrade    MaintenanceType = "UPGRADE"
	MaintenanceInspection MaintenanceType = "INSPECTION"
)

// Valid reports whether t is a known maintenance type.
func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintenancePreventive, MaintenanceCorrective, MaintenanceUpgrade, MaintenanceInspection:
		return true
	}
	return false
}

// MaintenanceStatus enumerates maintenance states.
type MaintenanceStatus string

const (
	MaintenanceStatusScheduled  MaintenanceStatus = "SCHEDULED"
	MaintenanceStatusInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceStatusCompleted  MaintenanceStatus = "COMPLETED"
	MaintenanceStatusCancelled  MaintenanceStatus = "CANCELLED"
)

// AssetMaintenance tracks work performed on an asset.
type AssetMaintenance struct {
	ID              string
	BusinessUnitID  string
	AssetID         string
	MaintenanceType MaintenanceType
	Status          MaintenanceStatus
	ScheduledDate   time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	Cost            decimal.Decimal
	Vendor          string
	Description     string
	PerformedBy     string
	CreatedBy       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DepreciationEntry is one posted depreciation period.
type DepreciationEntry struct {
	ID             string
	BusinessUnitID string
	AssetID        string
	PeriodNumber   int
	PeriodDate     time.Time
	Method         string
	Amount         decimal.Decimal
	Accumulated    decimal.Decimal
	BookValue      decimal.Decimal
	Units          int64
	CreatedAt      time.Time
}
