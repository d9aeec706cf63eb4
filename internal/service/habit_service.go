package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/habitlog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrHabitArchived 当尝试修改已归档习惯时返回
	ErrHabitArchived = errors.New("habit is archived")
	// ErrInvalidHabitColor 当颜色不在调色板内时返回
	ErrInvalidHabitColor = errors.New("invalid habit color")
	// ErrInvalidArgument 标记调用方参数错误，不会重试
	ErrInvalidArgument = errors.New("invalid argument")
)

// HabitService 负责 Habit 数据的增删改查
// 归档为终态软删除：归档后的习惯不再出现在列表与统计中，也不会物理删除
type HabitService struct {
	db *gorm.DB
}

// HabitInput 定义创建/更新习惯时可配置字段
type HabitInput struct {
	Name  string
	Color db.HabitColor
	Notes string
}

// HabitFilter 描述列表过滤条件
type HabitFilter struct {
	IncludeArchived bool
	Search          string
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// List 返回习惯集合，默认排除已归档
func (s *HabitService) List(filter HabitFilter) ([]db.Habit, error) {
	var habits []db.Habit

	query := s.db.Model(&db.Habit{})
	if !filter.IncludeArchived {
		query = query.Where("archived = ?", false)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("name LIKE ? OR notes LIKE ?", like, like)
	}

	if err := query.Order("id ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// Create 新建习惯
func (s *HabitService) Create(input HabitInput) (*db.Habit, error) {
	input, err := validateHabitInput(input)
	if err != nil {
		return nil, err
	}

	habit := db.Habit{
		Name:  input.Name,
		Color: input.Color,
		Notes: strings.TrimSpace(input.Notes),
	}

	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

// Update 更新习惯的名称、颜色和备注；已归档习惯不可修改
func (s *HabitService) Update(id uint, input HabitInput) (*db.Habit, error) {
	input, err := validateHabitInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if existing.Archived {
		return nil, ErrHabitArchived
	}

	existing.Name = input.Name
	existing.Color = input.Color
	existing.Notes = strings.TrimSpace(input.Notes)

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return existing, nil
}

// Archive 归档习惯。重复归档是幂等的。
func (s *HabitService) Archive(id uint) (*db.Habit, error) {
	habit, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if habit.Archived {
		return habit, nil
	}

	habit.Archived = true
	if err := s.db.Save(habit).Error; err != nil {
		return nil, fmt.Errorf("archive habit: %w", err)
	}
	return habit, nil
}

func validateHabitInput(input HabitInput) (HabitInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, fmt.Errorf("%w: habit name is required", ErrInvalidArgument)
	}

	if input.Color == "" {
		input.Color = db.ColorGreen
	}
	valid := false
	for _, color := range db.HabitColors {
		if input.Color == color {
			valid = true
			break
		}
	}
	if !valid {
		return input, fmt.Errorf("%w: %s", ErrInvalidHabitColor, input.Color)
	}

	return input, nil
}
