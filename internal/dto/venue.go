package dto

// ── 场地模块 DTO ──

// CreateVenueRequest 创建场地请求
type CreateVenueRequest struct {
	Name    string `json:"name"    binding:"required,min=2,max=100"`
	Address string `json:"address" binding:"omitempty,max=200"`
}

// UpdateVenueRequest 更新场地请求
type UpdateVenueRequest struct {
	Name     *string `json:"name"      binding:"omitempty,min=2,max=100"`
	Address  *string `json:"address"   binding:"omitempty,max=200"`
	IsActive *bool   `json:"is_active"`
}

// VenueListRequest 场地列表查询参数
type VenueListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// VenueResponse 场地信息响应
type VenueResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
