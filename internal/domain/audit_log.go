package domain

import "time"

// AuditEntity names the record type an audit entry refers to.
type AuditEntity string

const (
	EntityAsset        AuditEntity = "ASSET"
	EntityEmployee     AuditEntity = "EMPLOYEE"
	EntityDepartment   AuditEntity = "DEPARTMENT"
	EntityRole         AuditEntity = "ROLE"
	EntityUser         AuditEntity = "USER"
	EntityBusinessUnit AuditEntity = "BUSINESS_UNIT"
	EntityDeployment   AuditEntity = "DEPLOYMENT"
	EntityTransfer     AuditEntity = "TRANSFER"
	EntityRetirement   AuditEntity = "RETIREMENT"
	EntityDisposal     AuditEntity = "DISPOSAL"
	EntityMaintenance  AuditEntity = "MAINTENANCE"
	EntitySetting      AuditEntity = "SETTING"
)

// AuditAction describes what happened.
type AuditAction string

const (
	ActionCreate     AuditAction = "CREATE"
	ActionUpdate     AuditAction = "UPDATE"
	ActionDelete     AuditAction = "DELETE"
	ActionRestore    AuditAction = "RESTORE"
	ActionDeploy     AuditAction = "DEPLOY"
	ActionReturn     AuditAction = "RETURN"
	ActionTransfer   AuditAction = "TRANSFER"
	ActionCancel     AuditAction = "CANCEL"
	ActionRetire     AuditAction = "RETIRE"
	ActionDispose    AuditAction = "DISPOSE"
	ActionDepreciate AuditAction = "DEPRECIATE"
	ActionMaintain   AuditAction = "MAINTENANCE"
	ActionUsage      AuditAction = "USAGE"
)

// AuditLog is an immutable audit trail entry.
type AuditLog struct {
	ID             string
	BusinessUnitID *string
	ActorUserID    *string
	EntityType     AuditEntity
	EntityID       string
	Action         AuditAction
	OldValues      map[string]any
	NewValues      map[string]any
	IPAddress      string
	CreatedAt      time.Time
}
