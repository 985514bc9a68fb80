package engine

import (
	"fmt"
	"slices"
)

const (
	MinutesPerDay = 1440
	// hourThreshold 小于该值的原始时间按小时处理
	hourThreshold = 48
	// DefaultWeekday 缺省星期
	DefaultWeekday = "Monday"
)

// Weekdays 周一开始的 7 天循环
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Clock 推进后的日历位置
type Clock struct {
	Minutes   int    `json:"minutes"`
	Weekday   string `json:"weekday"`
	Formatted string `json:"formatted"`
}

// Normalize 将原始时间值转为分钟：小于 48 视为小时，否则已是分钟
// 48 附近的值存在歧义，保持原有语义不做修正
func Normalize(raw int) int {
	if raw < hourThreshold {
		return raw * 60
	}
	return raw
}

// Advance 推进日历
// current 会先经过 Normalize；delta 非正时不推进
// 空 weekday 视为周一，未知 weekday 原样保留
func Advance(current int, weekday string, delta int) Clock {
	if weekday == "" {
		weekday = DefaultWeekday
	}
	if delta < 0 {
		delta = 0
	}

	total := Normalize(current) + delta
	dayShift := floorDiv(total, MinutesPerDay)
	minutes := total - dayShift*MinutesPerDay

	if dayShift != 0 {
		if idx := slices.Index(Weekdays, weekday); idx >= 0 {
			n := len(Weekdays)
			weekday = Weekdays[((idx+dayShift)%n+n)%n]
		}
	}

	return Clock{
		Minutes:   minutes,
		Weekday:   weekday,
		Formatted: FormatHHMM(minutes),
	}
}

// FormatHHMM 24 小时制 HH:MM，负数按 0 处理，超过一天取模
func FormatHHMM(minutes int) string {
	total := max(0, minutes) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
