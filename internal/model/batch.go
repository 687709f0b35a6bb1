package model

import (
	"time"

	"github.com/lib/pq"
)

// 班级类型
const (
	BatchTypeFixed     = "fixed"
	BatchTypeRecurring = "recurring"
)

// 班级状态
const (
	BatchStatusActive   = "active"
	BatchStatusInactive = "inactive"
	BatchStatusArchived = "archived"
)

// 排课模式关键字；其余取值视为星期名称
const (
	PatternManual  = "MANUAL"
	PatternMWF     = "MWF"
	PatternTTS     = "TTS"
	PatternWeekend = "WEEKEND"
	PatternDaily   = "DAILY"
)

// Batch 班级表 — 对应 batches（排课配置的持有者）
type Batch struct {
	BatchID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"batch_id"`
	VenueID              *string        `gorm:"type:uuid"                                      json:"venue_id,omitempty"`
	Name                 string         `gorm:"type:varchar(150);not null"                     json:"name"`
	Description          string         `gorm:"type:text"                                      json:"description,omitempty"`
	Type                 string         `gorm:"type:varchar(20);not null;default:'recurring'"  json:"type"` // fixed | recurring
	StartDate            *time.Time     `gorm:"type:date"                                      json:"start_date,omitempty"`
	EndDate              *time.Time     `gorm:"type:date"                                      json:"end_date,omitempty"`
	SessionStartTime     string         `gorm:"type:varchar(8);not null;default:''"            json:"session_start_time"` // HH:MM:SS
	SessionEndTime       string         `gorm:"type:varchar(8);not null;default:''"            json:"session_end_time"`
	NoOfSessions         *int           `gorm:"column:no_of_sessions"                          json:"no_of_sessions,omitempty"`
	SchedulePattern      string         `gorm:"type:varchar(20);not null;default:''"           json:"schedule_pattern"`
	SelectedSessionDates pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"selected_session_dates"`
	Status               string         `gorm:"type:varchar(20);not null;default:'active'"     json:"status"` // active | inactive | archived
	VersionedModel

	// 关联
	Venue    *Venue         `gorm:"foreignKey:VenueID;references:VenueID" json:"venue,omitempty"`
	Sessions []BatchSession `gorm:"foreignKey:BatchID"                    json:"sessions,omitempty"`
}

// TableName 指定表名
func (Batch) TableName() string { return "batches" }
