package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/assetdesk/asset-service/internal/depreciation"
	"github.com/assetdesk/asset-service/internal/domain"
)

// AssetRequest creates or replaces an asset's descriptive and depreciation data.
type AssetRequest struct {
	DepartmentID          *string               `json:"department_id" validate:"omitempty,uuid"`
	AssetTag              string                `json:"asset_tag" validate:"max=50"`
	Name                  string                `json:"name" validate:"required,max=200"`
	Description           string                `json:"description" validate:"max=2000"`
	Category              string                `json:"category" validate:"required,max=100"`
	Manufacturer          string                `json:"manufacturer" validate:"max=200"`
	Model                 string                `json:"model" validate:"max=200"`
	SerialNumber          string                `json:"serial_number" validate:"max=200"`
	Condition             domain.AssetCondition `json:"condition" validate:"omitempty,oneof=NEW GOOD FAIR POOR DAMAGED"`
	Location              string                `json:"location" validate:"max=200"`
	PurchaseDate          *Date                 `json:"purchase_date"`
	PurchasePrice         decimal.Decimal       `json:"purchase_price"`
	SalvageValue          decimal.Decimal       `json:"salvage_value"`
	UsefulLifeMonths      int                   `json:"useful_life_months" validate:"gte=0,lte=1200"`
	DepreciationMethod    depreciation.Method   `json:"depreciation_method" validate:"omitempty,oneof=STRAIGHT_LINE DECLINING_BALANCE SUM_OF_YEARS_DIGITS UNITS_OF_PRODUCTION"`
	DecliningBalanceRate  decimal.Decimal       `json:"declining_balance_rate"`
	TotalExpectedUnits    int64                 `json:"total_expected_units" validate:"gte=0"`
	DepreciationStartDate *Date                 `json:"depreciation_start_date"`
	WarrantyExpiry        *Date                 `json:"warranty_expiry"`
	Notes                 string                `json:"notes" validate:"max=2000"`
}

// AssetResponse is the full asset view.
type AssetResponse struct {
	ID             string                `json:"id"`
	BusinessUnitID string                `json:"business_unit_id"`
	DepartmentID   *string               `json:"department_id"`
	AssetTag       string                `json:"asset_tag"`
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	Category       string                `json:"category"`
	Manufacturer   string                `json:"manufacturer"`
	Model          string                `json:"model"`
	SerialNumber   string                `json:"serial_number"`
	Status         domain.AssetStatus    `json:"status"`
	Condition      domain.AssetCondition `json:"condition"`
	Location       string                `json:"location"`

	PurchaseDate          *Date               `json:"purchase_date"`
	PurchasePrice         decimal.Decimal     `json:"purchase_price"`
	SalvageValue          decimal.Decimal     `json:"salvage_value"`
	UsefulLifeMonths      int                 `json:"useful_life_months"`
	DepreciationMethod    depreciation.Method `json:"depreciation_method"`
	DecliningBalanceRate  decimal.Decimal     `json:"declining_balance_rate"`
	TotalExpectedUnits    int64               `json:"total_expected_units"`
	UnitsUsed             int64               `json:"units_used"`
	DepreciationStartDate *Date               `json:"depreciation_start_date"`
	DepreciationPeriods   int                 `json:"depreciation_periods"`

	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	CurrentBookValue        decimal.Decimal `json:"current_book_value"`
	LastDepreciationDate    *Date           `json:"last_depreciation_date"`
	NextDepreciationDate    *Date           `json:"next_depreciation_date"`
	IsFullyDepreciated      bool            `json:"is_fully_depreciated"`

	WarrantyExpiry *Date      `json:"warranty_expiry"`
	Notes          string     `json:"notes"`
	CreatedBy      *string    `json:"created_by"`
	IsDeleted      bool       `json:"is_deleted"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// UsageRequest reports units consumed by a units-of-production asset.
type UsageRequest struct {
	Units int64 `json:"units" validate:"required,gt=0"`
}

// DepreciateRequest posts due periods for one asset.
type DepreciateRequest struct {
	AsOf *Date `json:"as_of"`
}

// CalculateRequest previews a schedule without touching any asset.
type CalculateRequest struct {
	Method           depreciation.Method `json:"method" validate:"required,oneof=STRAIGHT_LINE DECLINING_BALANCE SUM_OF_YEARS_DIGITS UNITS_OF_PRODUCTION"`
	Cost             decimal.Decimal     `json:"cost"`
	SalvageValue     decimal.Decimal     `json:"salvage_value"`
	UsefulLifeMonths int                 `json:"useful_life_months" validate:"required,gt=0,lte=1200"`
	StartDate        *Date               `json:"start_date" validate:"required"`
	DecliningRate    decimal.Decimal     `json:"declining_rate"`
	TotalUnits       int64               `json:"total_units" validate:"gte=0"`
	Usage            []int64             `json:"usage" validate:"dive,gte=0"`
}

// RunDepreciationRequest triggers the batch run for the caller's business unit.
type RunDepreciationRequest struct {
	AsOf *Date `json:"as_of"`
}

// ScheduleEntryResponse is one projected or posted period.
type ScheduleEntryResponse struct {
	Period      int             `json:"period"`
	Date        Date            `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Accumulated decimal.Decimal `json:"accumulated"`
	BookValue   decimal.Decimal `json:"book_value"`
	Units       int64           `json:"units,omitempty"`
}

// DepreciationEntryResponse is a posted ledger row.
type DepreciationEntryResponse struct {
	ID          string          `json:"id"`
	AssetID     string          `json:"asset_id"`
	Period      int             `json:"period"`
	Date        Date            `json:"date"`
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	Accumulated decimal.Decimal `json:"accumulated"`
	BookValue   decimal.Decimal `json:"book_value"`
	Units       int64           `json:"units,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PostingResponse summarises periods posted for one asset.
type PostingResponse struct {
	AssetID          string                      `json:"asset_id"`
	Periods          int                         `json:"periods"`
	Amount           decimal.Decimal             `json:"amount"`
	BookValue        decimal.Decimal             `json:"book_value"`
	FullyDepreciated bool                        `json:"fully_depreciated"`
	Entries          []DepreciationEntryResponse `json:"entries"`
}

// DashboardResponse aggregates register figures.
type DashboardResponse struct {
	TotalAssets          int64                        `json:"total_assets"`
	ByStatus             map[domain.AssetStatus]int64 `json:"by_status"`
	TotalCost            decimal.Decimal              `json:"total_cost"`
	TotalBookValue       decimal.Decimal              `json:"total_book_value"`
	TotalAccumulated     decimal.Decimal              `json:"total_accumulated_depreciation"`
	ActiveDeployments    int64                        `json:"active_deployments"`
	OverdueDeployments   int64                        `json:"overdue_deployments"`
	ScheduledMaintenance int64                        `json:"scheduled_maintenance"`
	Currency             string                       `json:"currency"`
	GeneratedAt          time.Time                    `json:"generated_at"`
}
