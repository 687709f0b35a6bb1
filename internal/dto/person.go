package dto

// ── 学员 / 教练模块 DTO ──

// CreatePersonRequest 创建学员或教练请求
type CreatePersonRequest struct {
	Name         string  `json:"name"          binding:"required,min=1,max=100"`
	Email        string  `json:"email"         binding:"required,email,max=150"`
	Phone        string  `json:"phone"         binding:"omitempty,max=30"`
	Status       string  `json:"status"        binding:"omitempty,oneof=active inactive"`
	ExcusedUntil *string `json:"excused_until" binding:"omitempty,ymd"`
	ExcuseReason *string `json:"excuse_reason" binding:"omitempty,max=500"`
}

// UpdatePersonRequest 更新学员或教练请求
// excused_until 传空字符串表示取消请假
type UpdatePersonRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=100"`
	Email        *string `json:"email"         binding:"omitempty,email,max=150"`
	Phone        *string `json:"phone"         binding:"omitempty,max=30"`
	Status       *string `json:"status"        binding:"omitempty,oneof=active inactive"`
	ExcusedUntil *string `json:"excused_until" binding:"omitempty,ymd"`
	ExcuseReason *string `json:"excuse_reason" binding:"omitempty,max=500"`
}

// PersonListRequest 人员列表查询参数
type PersonListRequest struct {
	Status  string `form:"status"  binding:"omitempty,oneof=active inactive"`
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
	PaginationRequest
}

// UpdateRosterRequest 替换班级名单请求
type UpdateRosterRequest struct {
	PersonIDs []string `json:"person_ids" binding:"omitempty,max=500,dive,uuid"`
}

// PersonResponse 人员信息响应
type PersonResponse struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone,omitempty"`
	Status       string  `json:"status"`
	ExcusedUntil *string `json:"excused_until"`
	ExcuseReason *string `json:"excuse_reason"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}
