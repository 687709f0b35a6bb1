package service

import (
	"time"

	"coach-center/internal/model"
)

// Clock 时间来源，"今天"的判断统一经由它完成
type Clock interface {
	Now() time.Time
}

// SystemClock 系统时钟，Now 返回配置时区下的当前时间
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock 创建系统时钟；loc 为 nil 时使用 UTC
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return SystemClock{Location: loc}
}

func (c SystemClock) Now() time.Time {
	return time.Now().In(c.Location)
}

// Today 时钟所在时区的当天日期（UTC 零点表示）
func Today(c Clock) time.Time {
	return model.DateOf(c.Now())
}
