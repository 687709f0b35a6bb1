package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"coach-center/internal/service"
	apperrors "coach-center/pkg/errors"
	"coach-center/pkg/response"
)

// ── 业务错误码 ──

const (
	codeValidation     = 10001
	codeOptimisticLock = 10006

	codeVenueNotFound = 20001

	codeBatchNotFound = 21001

	codeSessionNotFound = 22001
	codeSessionConflict = 22002

	codePersonNotFound = 23001

	codeFutureDate      = 24001
	codeExcusedOnly     = 24002
	codeNoSessionForDay = 24003
	codeNoAttendance    = 24004
	codeNotOnRoster     = 24005
)

// respondBindError 请求绑定失败：校验错误返回 422 字段映射，其余（JSON 语法等）返回 400
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			field := fieldName(fe)
			if _, exists := fields[field]; !exists {
				fields[field] = fieldMessage(fe)
			}
		}
		response.ValidationFailed(c, codeValidation, "参数校验失败", fields)
		return
	}
	response.BadRequest(c, codeValidation, "请求格式无效")
}

// fieldName 去掉顶层结构体名，保留 json/form 标签名及数组下标
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "oneof":
		return fmt.Sprintf("取值无效，可选值: %s", fe.Param())
	case "ymd":
		return "日期格式应为 YYYY-MM-DD"
	case "clock_time":
		return "时间格式应为 HH:MM 或 HH:MM:SS"
	case "schedule_pattern":
		return "排课模式无效"
	case "uuid":
		return "ID 格式无效"
	case "email":
		return "邮箱格式无效"
	case "min":
		return fmt.Sprintf("不能小于 %s", fe.Param())
	case "max":
		return fmt.Sprintf("不能大于 %s", fe.Param())
	default:
		return "取值无效"
	}
}

// respondServiceError 统一将 Service 层错误映射为 HTTP 响应
// 未识别的错误记录日志并返回 500，不回显内部信息
func respondServiceError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		response.ValidationFailed(c, codeValidation, "参数校验失败", verr.Fields)
		return
	}

	switch {
	case errors.Is(err, service.ErrVenueNotFound):
		response.NotFound(c, codeVenueNotFound, err.Error())
	case errors.Is(err, service.ErrBatchNotFound):
		response.NotFound(c, codeBatchNotFound, err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, codeSessionNotFound, err.Error())
	case errors.Is(err, service.ErrPersonNotFound):
		response.NotFound(c, codePersonNotFound, err.Error())
	case errors.Is(err, service.ErrNoSessionForDate):
		response.NotFound(c, codeNoSessionForDay, err.Error())
	case errors.Is(err, service.ErrNoAttendanceData):
		response.NotFound(c, codeNoAttendance, err.Error())
	case errors.Is(err, service.ErrSessionConflict):
		response.Unprocessable(c, codeSessionConflict, err.Error())
	case errors.Is(err, service.ErrNotOnRoster):
		response.Unprocessable(c, codeNotOnRoster, err.Error())
	case errors.Is(err, service.ErrExcusedOnly):
		response.Unprocessable(c, codeExcusedOnly, err.Error())
	case errors.Is(err, service.ErrFutureDate):
		response.Unprocessable(c, codeFutureDate, err.Error())
	case errors.Is(err, apperrors.ErrOptimisticLock):
		response.Unprocessable(c, codeOptimisticLock, err.Error())
	default:
		logger.Error("请求处理失败",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.InternalError(c)
	}
}
