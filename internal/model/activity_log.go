package model

import (
	"time"

	"gorm.io/datatypes"
)

// 操作类型
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionRegenerate = "regenerate"
	ActionReschedule = "reschedule"
	ActionStatus     = "status_change"
	ActionMark       = "mark"
	ActionRoster     = "roster"
)

// 操作对象类型
const (
	SubjectBatch      = "batch"
	SubjectSession    = "batch_session"
	SubjectVenue      = "venue"
	SubjectMember     = "member"
	SubjectPartner    = "partner"
	SubjectAttendance = "attendance"
)

// ActivityLog 操作日志表 — 对应 activity_logs（纯审计日志）
type ActivityLog struct {
	ActivityLogID string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_log_id"`
	ActorID       *string           `gorm:"type:varchar(64)"                               json:"actor_id,omitempty"`
	Action        string            `gorm:"type:varchar(50);not null"                      json:"action"`
	SubjectType   string            `gorm:"type:varchar(50);not null"                      json:"subject_type"`
	SubjectID     string            `gorm:"type:varchar(64);not null"                      json:"subject_id"`
	Description   string            `gorm:"type:varchar(500);not null"                     json:"description"`
	OldValues     datatypes.JSONMap `gorm:"type:jsonb"                                     json:"old_values,omitempty"`
	NewValues     datatypes.JSONMap `gorm:"type:jsonb"                                     json:"new_values,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }
