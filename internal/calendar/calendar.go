// Package calendar 提供纯函数的日期分组与分桶工具，
// 供统计聚合使用：星期归属、热力图分桶、周/月序列。
package calendar

import (
	"fmt"
	"time"
)

// DayOfWeekIndex 返回 ISO-8601 星期序号：周一=1 .. 周日=7。
// 序号与地区设置无关，仅星期的显示名称才需要本地化。
func DayOfWeekIndex(date time.Time) int {
	weekday := int(date.Weekday())
	if weekday == 0 {
		return 7
	}
	return weekday
}

// Bucketize 把 [0, maxValue] 等宽划分为 bucketCount 个桶并返回 value 所在桶号。
// 余数由最后一个桶吸收；maxValue 或 bucketCount 为 0 时恒返回桶 0。
func Bucketize(value, maxValue, bucketCount int) int {
	if bucketCount <= 0 || maxValue <= 0 {
		return 0
	}
	if value < 0 {
		value = 0
	}
	if value > maxValue {
		value = maxValue
	}

	index := value * bucketCount / (maxValue + 1)
	if index >= bucketCount {
		index = bucketCount - 1
	}
	return index
}

// MaxValueInBucket 返回会落入指定桶的最大原始值，用于图例。
// 对固定的 maxValue/bucketCount，结果随桶号单调递增。
func MaxValueInBucket(bucket, maxValue, bucketCount int) int {
	if bucketCount <= 0 || maxValue <= 0 {
		return 0
	}

	value := ((bucket+1)*(maxValue+1) - 1) / bucketCount
	if value > maxValue {
		value = maxValue
	}
	return value
}

// LocalDate 把一个绝对时刻换算为指定时区下的日历日（当天零点）。
// 写入与聚合两侧必须使用同一时区，否则同一动作会被归到不同日期。
func LocalDate(instant time.Time, loc *time.Location) time.Time {
	local := instant.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// StartOfMonth 返回日期所在月份的第一天
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// EndOfMonth 返回日期所在月份的最后一天
func EndOfMonth(date time.Time) time.Time {
	return StartOfMonth(date).AddDate(0, 1, -1)
}

// StartOfISOWeek 返回日期所在 ISO 周的周一
func StartOfISOWeek(date time.Time) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return day.AddDate(0, 0, 1-DayOfWeekIndex(day))
}

// WeekLabel 返回 ISO 周标签，如 2021-W13
func WeekLabel(date time.Time) string {
	year, week := date.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthLabel 返回月份标签，如 2021-03
func MonthLabel(date time.Time) string {
	return date.Format("2006-01")
}
