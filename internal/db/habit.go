package db

import (
	"time"

	"gorm.io/gorm"
)

// HabitColor 来自固定调色板，用于前端标记习惯颜色
// 合法取值见 HabitColors
type HabitColor string

const (
	ColorRed    HabitColor = "red"
	ColorGreen  HabitColor = "green"
	ColorBlue   HabitColor = "blue"
	ColorYellow HabitColor = "yellow"
	ColorCyan   HabitColor = "cyan"
	ColorPink   HabitColor = "pink"
)

// HabitColors 枚举全部合法颜色
var HabitColors = []HabitColor{ColorRed, ColorGreen, ColorBlue, ColorYellow, ColorCyan, ColorPink}

// Habit 定义了习惯模型
// Notes 为自由文本备注，API 侧按 Markdown 渲染
// Archived 为终态软删除：归档后不再出现在任何查询和统计中，也不会物理删除
type Habit struct {
	gorm.Model
	Name     string     `gorm:"not null"`
	Color    HabitColor `gorm:"not null;default:green"`
	Notes    string
	Archived bool `gorm:"not null;default:false;index"`
}

// Action 记录一次习惯完成事件
// Timestamp 为事件发生的绝对时刻，LogDate 为按服务时区换算出的本地日历日；
// habit_id + log_date 采用唯一索引，保证每个习惯每天至多一条记录
type Action struct {
	gorm.Model
	HabitID   uint      `gorm:"index;index:idx_action_unique,unique"`
	Habit     Habit     `gorm:"constraint:OnDelete:CASCADE"`
	Timestamp time.Time `gorm:"not null"`
	LogDate   time.Time `gorm:"index:idx_action_unique,unique"`
}

// TableName 重写确保唯一索引作用到 habit_id + log_date
func (Action) TableName() string {
	return "actions"
}
