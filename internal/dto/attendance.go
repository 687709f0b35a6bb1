package dto

// ── 考勤模块 DTO ──

// AttendanceQuery 班级考勤查询参数
type AttendanceQuery struct {
	Type string `form:"type" binding:"required,oneof=member partner"`
}

// AttendanceByDateQuery 单日考勤查询参数
type AttendanceByDateQuery struct {
	Type string `form:"type" binding:"required,oneof=member partner"`
	Date string `form:"date" binding:"required,ymd"`
}

// MarkAttendanceRequest 标记考勤请求
type MarkAttendanceRequest struct {
	Type     string  `json:"type"      binding:"required,oneof=member partner"`
	PersonID string  `json:"person_id" binding:"required,uuid"`
	BatchID  string  `json:"batch_id"  binding:"required,uuid"`
	Date     string  `json:"date"      binding:"required,ymd"`
	Status   string  `json:"status"    binding:"required,oneof=present absent excused 'not marked'"`
	Notes    *string `json:"notes"     binding:"omitempty,max=1000"`
}

// AttendanceSessionRef 考勤所属课次
type AttendanceSessionRef struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	Batch     BatchBrief `json:"batch"`
}

// AttendanceItem 考勤记录响应；未来课次 id 为 null 且不可编辑
type AttendanceItem struct {
	ID            *string              `json:"id"`
	Status        string               `json:"status"`
	DisplayStatus string               `json:"display_status"`
	MarkedAt      *string              `json:"marked_at"`
	MarkedBy      *string              `json:"marked_by,omitempty"`
	Notes         *string              `json:"notes"`
	IsEditable    bool                 `json:"is_editable"`
	BatchSession  AttendanceSessionRef `json:"batch_session"`
	Member        *PersonBrief         `json:"member,omitempty"`
	Partner       *PersonBrief         `json:"partner,omitempty"`
}

// RecentAttendanceItem 教练近期考勤
type RecentAttendanceItem struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	MarkedAt  *string    `json:"marked_at"`
	Notes     *string    `json:"notes"`
	Date      string     `json:"date"`
	SessionID string     `json:"batch_session_id"`
	Batch     BatchBrief `json:"batch"`
}
