package model

import "time"

// 考勤状态
const (
	AttendancePresent   = "present"
	AttendanceAbsent    = "absent"
	AttendanceExcused   = "excused"
	AttendanceNotMarked = "not marked"
)

// IsValidAttendanceStatus 校验考勤状态取值
func IsValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceExcused, AttendanceNotMarked:
		return true
	}
	return false
}

// AttendanceRecord 考勤记录 — 对应 member_attendances / partner_attendances
// 两张表结构一致，表名由 PersonType.AttendanceTable() 决定；(batch_session_id, person_id) 唯一
type AttendanceRecord struct {
	AttendanceID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	BatchSessionID string     `gorm:"type:uuid;not null"                             json:"batch_session_id"`
	PersonID       string     `gorm:"type:uuid;not null"                             json:"person_id"`
	Status         string     `gorm:"type:varchar(20);not null;default:'not marked'" json:"status"`
	MarkedAt       *time.Time `json:"marked_at,omitempty"`
	MarkedBy       *string    `gorm:"type:varchar(64)"                               json:"marked_by,omitempty"`
	Notes          *string    `gorm:"type:text"                                      json:"notes,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// AttendanceWithSession 考勤记录联表课次与班级的查询结果
type AttendanceWithSession struct {
	AttendanceRecord
	SessionDate time.Time `gorm:"column:session_date" json:"session_date"`
	BatchID     string    `gorm:"column:batch_id"     json:"batch_id"`
	BatchName   string    `gorm:"column:batch_name"   json:"batch_name"`
}
