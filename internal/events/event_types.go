package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/assetdesk/asset-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAssetCreated         EventType = "asset_created"
	EventAssetDeployed        EventType = "asset_deployed"
	EventAssetReturned        EventType = "asset_returned"
	EventTransferRequested    EventType = "asset_transfer_requested"
	EventAssetTransferred     EventType = "asset_transferred"
	EventAssetRetired         EventType = "asset_retired"
	EventAssetDisposed        EventType = "asset_disposed"
	EventAssetDepreciated     EventType = "asset_depreciated"
	EventMaintenanceScheduled EventType = "maintenance_scheduled"
	EventMaintenanceCompleted EventType = "maintenance_completed"
	EventDeploymentOverdue    EventType = "deployment_overdue"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	BusinessUnitID string    `json:"business_unit_id"`
	AssetID        string    `json:"asset_id"`
	ActorUserID    *string   `json:"actor_user_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Payload        any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, scope domain.Scope, assetID string, payload any) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		BusinessUnitID: scope.BusinessUnitID,
		AssetID:        assetID,
		ActorUserID:    scope.ActorID(),
		Timestamp:      time.Now().UTC(),
		Payload:        payload,
	}
}

// AssetCreatedPayload payload.
type AssetCreatedPayload struct {
	AssetTag string `json:"asset_tag"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// AssetDeployedPayload payload.
type AssetDeployedPayload struct {
	DeploymentID       string     `json:"deployment_id"`
	EmployeeID         string     `json:"employee_id"`
	ExpectedReturnDate *time.Time `json:"expected_return_date,omitempty"`
}

// AssetReturnedPayload payload.
type AssetReturnedPayload struct {
	DeploymentID string                `json:"deployment_id"`
	EmployeeID   string                `json:"employee_id"`
	Condition    domain.AssetCondition `json:"condition"`
}

// AssetTransferredPayload payload.
type AssetTransferredPayload struct {
	TransferID       string                `json:"transfer_id"`
	Status           domain.TransferStatus `json:"status"`
	FromDepartmentID *string               `json:"from_department_id,omitempty"`
	ToDepartmentID   *string               `json:"to_department_id,omitempty"`
	FromLocation     string                `json:"from_location,omitempty"`
	ToLocation       string                `json:"to_location,omitempty"`
	ToBusinessUnitID *string               `json:"to_business_unit_id,omitempty"`
}

// AssetRetiredPayload payload.
type AssetRetiredPayload struct {
	RetirementID string          `json:"retirement_id"`
	Reason       string          `json:"reason"`
	BookValue    decimal.Decimal `json:"book_value"`
}

// AssetDisposedPayload payload.
type AssetDisposedPayload struct {
	DisposalID    string                `json:"disposal_id"`
	Method        domain.DisposalMethod `json:"method"`
	DisposalValue decimal.Decimal       `json:"disposal_value"`
	GainLoss      decimal.Decimal       `json:"gain_loss"`
}

// AssetDepreciatedPayload payload.
type AssetDepreciatedPayload struct {
	Periods          int             `json:"periods"`
	Amount           decimal.Decimal `json:"amount"`
	BookValue        decimal.Decimal `json:"book_value"`
	FullyDepreciated bool            `json:"fully_depreciated"`
}

// MaintenancePayload payload.
type MaintenancePayload struct {
	MaintenanceID string                   `json:"maintenance_id"`
	Type          domain.MaintenanceType   `json:"type"`
	Status        domain.MaintenanceStatus `json:"status"`
	Cost          decimal.Decimal          `json:"cost"`
}

// DeploymentOverduePayload payload.
type DeploymentOverduePayload struct {
	DeploymentID       string    `json:"deployment_id"`
	EmployeeID         string    `json:"employee_id"`
	ExpectedReturnDate time.Time `json:"expected_return_date"`
	DaysOverdue        int       `json:"days_overdue"`
}
