package dto

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── 公共简要信息 ──

// BatchBrief 班级简要信息
type BatchBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VenueBrief 场地简要信息
type VenueBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PersonBrief 人员简要信息（含当前请假信息）
type PersonBrief struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	ExcusedUntil *string `json:"excused_until"`
	ExcuseReason *string `json:"excuse_reason"`
}
