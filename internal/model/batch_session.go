package model

import "time"

// 课次状态
const (
	SessionStatusScheduled   = "scheduled"
	SessionStatusCompleted   = "completed"
	SessionStatusCancelled   = "cancelled"
	SessionStatusRescheduled = "rescheduled"
)

// BatchSession 课次表 — 对应 batch_sessions
// SequenceNo 为生成顺序 1..n，冲突提示中的"第 N 节"即以此为序
type BatchSession struct {
	BatchSessionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"batch_session_id"`
	BatchID        string    `gorm:"type:uuid;not null"                             json:"batch_id"`
	SequenceNo     int       `gorm:"not null"                                       json:"sequence_no"`
	Date           time.Time `gorm:"type:date;not null"                             json:"date"`
	StartTime      string    `gorm:"type:varchar(8);not null"                       json:"start_time"`
	EndTime        string    `gorm:"type:varchar(8);not null"                       json:"end_time"`
	Status         string    `gorm:"type:varchar(20);not null;default:'scheduled'"  json:"status"`
	Notes          *string   `gorm:"type:text"                                      json:"notes,omitempty"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
	UpdatedBy      *string   `gorm:"type:varchar(64)"                               json:"updated_by,omitempty"`

	// 关联
	Batch *Batch `gorm:"foreignKey:BatchID;references:BatchID" json:"batch,omitempty"`
}

// TableName 指定表名
func (BatchSession) TableName() string { return "batch_sessions" }

// IsValidSessionStatus 校验课次状态取值
func IsValidSessionStatus(s string) bool {
	switch s {
	case SessionStatusScheduled, SessionStatusCompleted, SessionStatusCancelled, SessionStatusRescheduled:
		return true
	}
	return false
}
