package dto

// ── 课次模块 DTO ──

// RescheduleSessionRequest 课次改期请求
type RescheduleSessionRequest struct {
	Date      string `json:"date"       binding:"required,ymd"`
	StartTime string `json:"start_time" binding:"required,clock_time"`
	EndTime   string `json:"end_time"   binding:"required,clock_time"`
	Notes     string `json:"notes"      binding:"required,min=1,max=1000"`
	Status    string `json:"status"     binding:"omitempty,oneof=scheduled completed cancelled rescheduled"`
}

// UpdateSessionStatusRequest 课次状态变更请求
type UpdateSessionStatusRequest struct {
	Status string  `json:"status" binding:"required,oneof=scheduled completed cancelled rescheduled"`
	Notes  *string `json:"notes"  binding:"omitempty,max=1000"`
}

// SessionResponse 课次信息响应
type SessionResponse struct {
	ID         string  `json:"id"`
	BatchID    string  `json:"batch_id"`
	SequenceNo int     `json:"sequence_no"`
	Date       string  `json:"date"`
	Weekday    string  `json:"weekday"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Status     string  `json:"status"`
	Notes      *string `json:"notes,omitempty"`
}
