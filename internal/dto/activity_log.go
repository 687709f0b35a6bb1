package dto

// ── 操作日志 DTO ──

// ActivityLogListRequest 操作日志查询参数
type ActivityLogListRequest struct {
	SubjectType string `form:"subject_type" binding:"omitempty,max=50"`
	SubjectID   string `form:"subject_id"   binding:"omitempty,max=64"`
	ActorID     string `form:"actor_id"     binding:"omitempty,max=64"`
	PaginationRequest
}

// ActivityLogResponse 操作日志响应
type ActivityLogResponse struct {
	ID          string                 `json:"id"`
	ActorID     *string                `json:"actor_id"`
	Action      string                 `json:"action"`
	SubjectType string                 `json:"subject_type"`
	SubjectID   string                 `json:"subject_id"`
	Description string                 `json:"description"`
	OldValues   map[string]interface{} `json:"old_values,omitempty"`
	NewValues   map[string]interface{} `json:"new_values,omitempty"`
	CreatedAt   string                 `json:"created_at"`
}
