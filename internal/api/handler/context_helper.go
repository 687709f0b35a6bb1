package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"coach-center/internal/model"
	"coach-center/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取操作人 ID（JWT subject）。
// 如果认证中间件未注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetIDParam 读取并校验路径中的 UUID 参数
func MustGetIDParam(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		response.ValidationFailed(c, 10001, "参数校验失败", map[string]string{name: "ID 格式无效"})
		return "", false
	}
	return id, true
}

// MustGetPersonType 读取 ?type=member|partner
func MustGetPersonType(c *gin.Context) (model.PersonType, bool) {
	pt, ok := model.ParsePersonType(c.Query("type"))
	if !ok {
		response.ValidationFailed(c, 10001, "参数校验失败", map[string]string{"type": "取值必须为 member 或 partner"})
		return "", false
	}
	return pt, true
}
