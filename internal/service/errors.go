package service

import (
	"errors"
	"sort"
	"strings"
)

// ── 通用业务错误 ──

var (
	ErrVenueNotFound       = errors.New("场地不存在")
	ErrBatchNotFound       = errors.New("班级不存在")
	ErrSessionNotFound     = errors.New("课次不存在")
	ErrPersonNotFound      = errors.New("人员不存在")
	ErrRosterPersonMissing = errors.New("名单中存在不存在的人员")
)

// ValidationError 字段级校验错误（422），Fields 为字段 → 错误信息
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "参数校验失败: " + strings.Join(parts, "; ")
}

// newValidationError 单字段校验错误
func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// fieldErrors 收集多个字段错误
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string(f)}
}
