package dto

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// 合法的排课模式（大小写不敏感）：关键字、星期名称或 manual
var schedulePatterns = map[string]bool{
	"MANUAL": true, "MWF": true, "TTS": true, "WEEKEND": true, "DAILY": true,
	"MONDAY": true, "TUESDAY": true, "WEDNESDAY": true, "THURSDAY": true,
	"FRIDAY": true, "SATURDAY": true, "SUNDAY": true,
}

// IsSchedulePattern 校验排课模式取值
func IsSchedulePattern(s string) bool {
	return schedulePatterns[strings.ToUpper(strings.TrimSpace(s))]
}

// NormalizeClock 将 HH:MM 或 HH:MM:SS 规范为 HH:MM:SS
func NormalizeClock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), true
		}
	}
	return "", false
}

// RegisterValidators 注册自定义校验标签：schedule_pattern / clock_time / ymd
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("schedule_pattern", func(fl validator.FieldLevel) bool {
		return IsSchedulePattern(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("clock_time", func(fl validator.FieldLevel) bool {
		_, ok := NormalizeClock(fl.Field().String())
		return ok
	}); err != nil {
		return err
	}
	return v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
}
