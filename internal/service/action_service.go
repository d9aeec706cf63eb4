package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/habitlog/internal/calendar"
	"github.com/habitlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActionService 负责打卡事件的写入路径。
// 打开开关插入一行，关闭开关删除该行；habit_id + log_date 唯一索引保证
// 每个习惯每天至多一条持久化记录。日历日由配置时区从时刻换算而来，
// 与读取路径使用同一时区。
type ActionService struct {
	db  *gorm.DB
	loc *time.Location
}

// NewActionService 构造 ActionService
func NewActionService(gdb *gorm.DB, loc *time.Location) *ActionService {
	if loc == nil {
		loc = time.Local
	}
	return &ActionService{db: gdb, loc: loc}
}

// Toggle 处理一次打卡切换。toggled=true 表示当天完成，false 表示撤销。
// 对已完成日期重复打开是幂等的；撤销不存在的记录同样是无操作。
func (s *ActionService) Toggle(habitID uint, toggled bool, at time.Time) error {
	habit, err := s.loadActiveHabit(habitID)
	if err != nil {
		return err
	}

	logDate := calendar.LocalDate(at, s.loc)

	if !toggled {
		// 物理删除，释放唯一索引占用的 (habit_id, log_date) 槽位
		if err := s.db.Unscoped().
			Where("habit_id = ? AND log_date = ?", habit.ID, logDate).
			Delete(&db.Action{}).Error; err != nil {
			return fmt.Errorf("delete action: %w", err)
		}
		return nil
	}

	record := db.Action{
		HabitID:   habit.ID,
		Timestamp: at,
		LogDate:   logDate,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "log_date"}},
		DoNothing: true,
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("insert action: %w", err)
	}

	return nil
}

// ListForHabit 返回某习惯的全部打卡记录，按日期升序
func (s *ActionService) ListForHabit(habitID uint) ([]db.Action, error) {
	if _, err := s.loadActiveHabit(habitID); err != nil {
		return nil, err
	}

	var actions []db.Action
	if err := s.db.Where("habit_id = ?", habitID).
		Order("log_date ASC").
		Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}

	return actions, nil
}

func (s *ActionService) loadActiveHabit(habitID uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, habitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("find habit: %w", err)
	}
	if habit.Archived {
		return nil, ErrHabitArchived
	}
	return &habit, nil
}
