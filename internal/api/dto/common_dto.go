package dto

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/assetdesk/asset-service/internal/domain"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct tags on a request and reports failures per json field.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[fe.Field()] = rule
	}
	return apperrors.NewValidationError("request validation failed", details)
}

// Date is a calendar day; it accepts YYYY-MM-DD or RFC3339 and renders YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses YYYY-MM-DD or an RFC3339 timestamp into a UTC day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// Ptr returns the day as a nullable time, nil when d is nil or zero.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// DateOf wraps a time.
func DateOf(t time.Time) Date {
	return Date{Time: t}
}

// DatePtr wraps a nullable time.
func DatePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

// ListMeta accompanies paged list responses.
type ListMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// AuditLogResponse is one audit trail entry.
type AuditLogResponse struct {
	ID             string             `json:"id"`
	BusinessUnitID *string            `json:"business_unit_id"`
	ActorUserID    *string            `json:"actor_user_id"`
	EntityType     domain.AuditEntity `json:"entity_type"`
	EntityID       string             `json:"entity_id"`
	Action         domain.AuditAction `json:"action"`
	OldValues      map[string]any     `json:"old_values,omitempty"`
	NewValues      map[string]any     `json:"new_values,omitempty"`
	IPAddress      string             `json:"ip_address,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// UpsertSettingRequest payload for PUT /settings/:key.
type UpsertSettingRequest struct {
	Value       string `json:"value" validate:"required,max=500"`
	Description string `json:"description" validate:"max=500"`
}

// SettingResponse is one effective setting.
type SettingResponse struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	Global      bool      `json:"global"`
	UpdatedAt   time.Time `json:"updated_at"`
}
