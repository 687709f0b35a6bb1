package dto

// ── 班级模块 DTO ──

// CreateBatchRequest 创建班级请求
type CreateBatchRequest struct {
	Name                 string   `json:"name"                   binding:"required,min=2,max=150"`
	Description          string   `json:"description"            binding:"omitempty,max=2000"`
	VenueID              *string  `json:"venue_id"               binding:"omitempty,uuid"`
	Type                 string   `json:"type"                   binding:"required,oneof=fixed recurring"`
	StartDate            *string  `json:"start_date"             binding:"omitempty,ymd"`
	EndDate              *string  `json:"end_date"               binding:"omitempty,ymd"`
	SessionStartTime     string   `json:"session_start_time"     binding:"omitempty,clock_time"`
	SessionEndTime       string   `json:"session_end_time"       binding:"omitempty,clock_time"`
	NoOfSessions         *int     `json:"no_of_sessions"         binding:"omitempty,min=0,max=1000"`
	SchedulePattern      string   `json:"schedule_pattern"       binding:"required,schedule_pattern"`
	SelectedSessionDates []string `json:"selected_session_dates" binding:"omitempty,max=1000,dive,ymd"`
	Status               string   `json:"status"                 binding:"omitempty,oneof=active inactive archived"`
	MemberIDs            []string `json:"member_ids"             binding:"omitempty,dive,uuid"`
	PartnerIDs           []string `json:"partner_ids"            binding:"omitempty,dive,uuid"`
}

// UpdateBatchRequest 更新班级请求（部分更新，字段缺省表示不修改）
// end_date 传空字符串表示清空结束日期
type UpdateBatchRequest struct {
	Name                 *string   `json:"name"                   binding:"omitempty,min=2,max=150"`
	Description          *string   `json:"description"            binding:"omitempty,max=2000"`
	VenueID              *string   `json:"venue_id"               binding:"omitempty,uuid"`
	Type                 *string   `json:"type"                   binding:"omitempty,oneof=fixed recurring"`
	StartDate            *string   `json:"start_date"             binding:"omitempty,ymd"`
	EndDate              *string   `json:"end_date"               binding:"omitempty,ymd"`
	SessionStartTime     *string   `json:"session_start_time"     binding:"omitempty,clock_time"`
	SessionEndTime       *string   `json:"session_end_time"       binding:"omitempty,clock_time"`
	NoOfSessions         *int      `json:"no_of_sessions"         binding:"omitempty,min=0,max=1000"`
	SchedulePattern      *string   `json:"schedule_pattern"       binding:"omitempty,schedule_pattern"`
	SelectedSessionDates *[]string `json:"selected_session_dates" binding:"omitempty,max=1000,dive,ymd"`
	Status               *string   `json:"status"                 binding:"omitempty,oneof=active inactive archived"`
}

// BatchListRequest 班级列表查询参数
type BatchListRequest struct {
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
	Status  string `form:"status"  binding:"omitempty,oneof=active inactive archived"`
	VenueID string `form:"venue_id" binding:"omitempty,uuid"`
	PaginationRequest
}

// BatchResponse 班级信息响应
type BatchResponse struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	Description          string             `json:"description,omitempty"`
	Venue                *VenueBrief        `json:"venue,omitempty"`
	Type                 string             `json:"type"`
	StartDate            *string            `json:"start_date"`
	EndDate              *string            `json:"end_date"`
	SessionStartTime     string             `json:"session_start_time"`
	SessionEndTime       string             `json:"session_end_time"`
	NoOfSessions         *int               `json:"no_of_sessions"`
	SchedulePattern      string             `json:"schedule_pattern"`
	SelectedSessionDates []string           `json:"selected_session_dates"`
	Status               string             `json:"status"`
	Version              int                `json:"version"`
	Members              []PersonBrief      `json:"members"`
	Partners             []PersonBrief      `json:"partners"`
	Sessions             []SessionResponse  `json:"sessions,omitempty"`
	Generation           *GenerationSummary `json:"generation,omitempty"`
	CreatedAt            string             `json:"created_at"`
	UpdatedAt            string             `json:"updated_at"`
}

// GenerationSummary 本次请求触发的课次生成结果
type GenerationSummary struct {
	Regenerated bool   `json:"regenerated"`
	Skipped     bool   `json:"skipped"`
	Requested   int    `json:"requested"`
	Created     int    `json:"created"`
	Warning     string `json:"warning,omitempty"`
}
