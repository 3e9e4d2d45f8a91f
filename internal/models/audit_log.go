package models

import "time"

// AuditLog is one entry of the local history of lifecycle events and
// workflow outcomes.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID int `gorm:"index" json:"user_id"`

	Entity   string `gorm:"size:50;not null;index:idx_audit_entity" json:"entity"` // "defect", "improvement", "mark"
	EntityID int    `gorm:"index:idx_audit_entity" json:"entity_id"`
	Action   string `gorm:"size:50;not null" json:"action"` // "create", "status_change", "partial_failure"
	Details  string `gorm:"type:text" json:"details"`
}

const (
	AuditEntityDefect      = "defect"
	AuditEntityImprovement = "improvement"

	AuditActionCreate         = "create"
	AuditActionStatusChange   = "status_change"
	AuditActionRepair         = "repair_submitted"
	AuditActionPartialFailure = "partial_failure"
	AuditActionDelete         = "delete"
)
