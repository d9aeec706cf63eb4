package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/habitlog/internal/db"
	"gorm.io/gorm"
)

// EventStore 抽象出聚合引擎消费的事件日志查询。
// 引擎只读取查询结果，不拥有存储；所有查询都排除已归档习惯。
type EventStore interface {
	// SumActionCountByDay 返回区间内每日打卡总数的稀疏列表，按日期升序。
	// 没有打卡的日期不出现在结果中。
	SumActionCountByDay(from, to time.Time) ([]DailyActionCount, error)
	// HabitActionCounts 为每个未归档习惯返回一行 (首次完成日, 总次数)，
	// 从未打卡的习惯 FirstDay 为 nil、Count 为 0。按习惯 ID 升序。
	HabitActionCounts() ([]HabitActionCount, error)
	// HabitDayRows 返回习惯与完成日期的连接行；无打卡的习惯也占一行
	// （LogDate 为 nil），按习惯 ID、日期升序。
	HabitDayRows() ([]HabitDayRow, error)
	// TotalHabitCount 返回未归档习惯数量的一次性快照
	TotalHabitCount() (int, error)
	// ActionsForHabit 返回某习惯全部完成日期，按日期升序
	ActionsForHabit(habitID uint) ([]time.Time, error)
}

// DailyActionCount 表示某个日历日的全习惯打卡总数
type DailyActionCount struct {
	Date  time.Time
	Count int
}

// HabitActionCount 是排行榜的原始行
type HabitActionCount struct {
	HabitID  uint
	Name     string
	FirstDay *time.Time
	Count    int
}

// HabitDayRow 是习惯与单个完成日期的连接行
type HabitDayRow struct {
	HabitID uint
	Name    string
	LogDate *time.Time
}

// GormEventStore 基于 GORM/SQLite 实现 EventStore
type GormEventStore struct {
	db *gorm.DB
}

// NewGormEventStore 构造 GormEventStore
func NewGormEventStore(gdb *gorm.DB) *GormEventStore {
	return &GormEventStore{db: gdb}
}

// SumActionCountByDay 按日聚合区间内的打卡数
func (s *GormEventStore) SumActionCountByDay(from, to time.Time) ([]DailyActionCount, error) {
	var rows []DailyActionCount
	if err := s.db.Model(&db.Action{}).
		Select("actions.log_date AS date, COUNT(*) AS count").
		Joins("JOIN habits ON habits.id = actions.habit_id AND habits.archived = ? AND habits.deleted_at IS NULL", false).
		Where("actions.log_date BETWEEN ? AND ?", from, to).
		Group("actions.log_date").
		Order("actions.log_date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sum action count by day: %w", err)
	}
	return rows, nil
}

// HabitActionCounts 由连接行在内存中折叠得出，保证无打卡习惯也有行
func (s *GormEventStore) HabitActionCounts() ([]HabitActionCount, error) {
	rows, err := s.HabitDayRows()
	if err != nil {
		return nil, err
	}

	counts := make([]HabitActionCount, 0)
	for _, row := range rows {
		if len(counts) == 0 || counts[len(counts)-1].HabitID != row.HabitID {
			counts = append(counts, HabitActionCount{HabitID: row.HabitID, Name: row.Name})
		}
		if row.LogDate == nil {
			continue
		}
		entry := &counts[len(counts)-1]
		entry.Count++
		if entry.FirstDay == nil || row.LogDate.Before(*entry.FirstDay) {
			entry.FirstDay = row.LogDate
		}
	}

	return counts, nil
}

// HabitDayRows 左连接习惯与打卡记录
func (s *GormEventStore) HabitDayRows() ([]HabitDayRow, error) {
	var rows []HabitDayRow
	if err := s.db.Table("habits").
		Select("habits.id AS habit_id, habits.name AS name, actions.log_date AS log_date").
		Joins("LEFT JOIN actions ON actions.habit_id = habits.id AND actions.deleted_at IS NULL").
		Where("habits.archived = ? AND habits.deleted_at IS NULL", false).
		Order("habits.id ASC, actions.log_date ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("habit day rows: %w", err)
	}
	return rows, nil
}

// TotalHabitCount 统计未归档习惯数
func (s *GormEventStore) TotalHabitCount() (int, error) {
	var count int64
	if err := s.db.Model(&db.Habit{}).Where("archived = ?", false).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count habits: %w", err)
	}
	return int(count), nil
}

// ActionsForHabit 返回某未归档习惯的完成日期序列
func (s *GormEventStore) ActionsForHabit(habitID uint) ([]time.Time, error) {
	var habit db.Habit
	if err := s.db.Where("archived = ?", false).First(&habit, habitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("find habit: %w", err)
	}

	var actions []db.Action
	if err := s.db.Where("habit_id = ?", habitID).
		Order("log_date ASC").
		Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("actions for habit: %w", err)
	}

	days := make([]time.Time, 0, len(actions))
	for _, action := range actions {
		days = append(days, action.LogDate)
	}
	return days, nil
}
