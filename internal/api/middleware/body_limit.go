package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coach-center/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 超限时 JSON 绑定失败，由 handler 返回 400；声明长度已超限的请求直接 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
