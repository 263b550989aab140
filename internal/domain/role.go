package domain

import "time"

// Permission names an action a role may perform.
type Permission string

const (
	PermissionAll            Permission = "*"
	PermissionAssetsRead     Permission = "assets:read"
	PermissionAssetsWrite    Permission = "assets:write"
	PermissionAssetsDelete   Permission = "assets:delete"
	PermissionEmployeesRead  Permission = "employees:read"
	PermissionEmployeesWrite Permission = "employees:write"
	PermissionOrgRead        Permission = "org:read"
	PermissionOrgWrite       Permission = "org:write"
	PermissionLifecycleWrite Permission = "lifecycle:write"
	PermissionDepreciation   Permission = "depreciation:run"
	PermissionAuditRead      Permission = "audit:read"
	PermissionSettingsWrite  Permission = "settings:write"
	PermissionUsersManage    Permission = "users:manage"
)

// KnownPermissions lists every grantable permission.
var KnownPermissions = []Permission{
	PermissionAll,
	PermissionAssetsRead,
	PermissionAssetsWrite,
	PermissionAssetsDelete,
	PermissionEmployeesRead,
	PermissionEmployeesWrite,
	PermissionOrgRead,
	PermissionOrgWrite,
	PermissionLifecycleWrite,
	PermissionDepreciation,
	PermissionAuditRead,
	PermissionSettingsWrite,
	PermissionUsersManage,
}

// Role groups permissions granted to users and describes employee job roles.
type Role struct {
	ID             string
	BusinessUnitID string
	Name           string
	Description    string
	Permissions    []string
	IsDeleted      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Has reports whether the role grants perm, directly or through the wildcard.
func (r *Role) Has(perm Permission) bool {
	if r == nil {
		return false
	}
	for _, p := range r.Permissions {
		if Permission(p) == PermissionAll || Permission(p) == perm {
			return true
		}
	}
	return false
}

// IsKnownPermission reports whether p is grantable.
func IsKnownPermission(p string) bool {
	for _, known := range KnownPermissions {
		if string(known) == p {
			return true
		}
	}
	return false
}
