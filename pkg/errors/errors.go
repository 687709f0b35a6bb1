// Package errors 跨模块共享的错误定义
package errors

import "errors"

// ErrOptimisticLock 班级 version 不匹配：读取后已被其他请求更新
// batchRepo.Update 以 WHERE version = ? 更新，影响 0 行时返回；handler 映射为 422
var ErrOptimisticLock = errors.New("班级已被其他操作修改，请刷新后重试")
