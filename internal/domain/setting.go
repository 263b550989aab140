package domain

import "time"

// Well-known setting keys.
const (
	SettingDefaultDepreciationMethod = "depreciation.default_method"
	SettingDefaultUsefulLifeMonths   = "depreciation.default_useful_life_months"
	SettingCurrency                  = "finance.currency"
	SettingDeploymentDefaultDays     = "deployment.default_days"
)

// SystemSetting is a key/value configuration entry; a nil BusinessUnitID marks a global default.
type SystemSetting struct {
	ID             string
	BusinessUnitID *string
	Key            string
	Value          string
	Description    string
	UpdatedBy      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
