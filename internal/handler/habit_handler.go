package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/calendar"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
)

const dateFormat = "2006-01-02"

type habitPayload struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Notes string `json:"notes"`
}

type togglePayload struct {
	Toggled   bool   `json:"toggled"`
	Date      string `json:"date"`      // 2006-01-02，可选
	Timestamp string `json:"timestamp"` // RFC3339，可选；与 Date 二选一
}

// ListHabits 返回习惯列表 JSON
func (a *API) ListHabits(c *gin.Context) {
	filter := service.HabitFilter{
		IncludeArchived: c.Query("include_archived") == "true",
		Search:          c.Query("search"),
	}

	habits, err := a.habits.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取习惯列表失败")
		return
	}

	items := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}

	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// GetHabit 返回单个习惯详情，附带渲染后的备注与打卡历史分类
func (a *API) GetHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	habit, err := a.habits.Get(id)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	item := habitToPayload(*habit)
	item["notes_html"] = renderNotes(habit.Notes)

	// 历史标签每次读取即时重算
	if !habit.Archived {
		actions, err := a.actions.ListForHabit(habit.ID)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "获取打卡记录失败")
			return
		}

		days := make([]time.Time, 0, len(actions))
		for _, action := range actions {
			days = append(days, action.LogDate.In(a.loc))
		}

		today := calendar.LocalDate(time.Now(), a.loc)
		item["history"] = historyToPayload(service.ClassifyActionHistory(days, today))
		item["total_action_count"] = len(days)
	}

	c.JSON(http.StatusOK, gin.H{"habit": item})
}

// CreateHabit 创建习惯
func (a *API) CreateHabit(c *gin.Context) {
	input, ok := a.parseHabitInput(c)
	if !ok {
		return
	}

	habit, err := a.habits.Create(input)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// UpdateHabit 更新习惯名称、颜色与备注
func (a *API) UpdateHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	input, ok := a.parseHabitInput(c)
	if !ok {
		return
	}

	habit, err := a.habits.Update(id, input)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// ArchiveHabit 归档习惯（终态，不可恢复）
func (a *API) ArchiveHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	habit, err := a.habits.Archive(id)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// ToggleAction 切换某天的打卡状态
func (a *API) ToggleAction(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	var payload togglePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	at, ok := resolveToggleInstant(payload, a.loc)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的打卡日期")
		return
	}

	if err := a.actions.Toggle(habitID, payload.Toggled, at); err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit_id": habitID, "toggled": payload.Toggled, "date": calendar.LocalDate(at, a.loc).Format(dateFormat)})
}

// ListActions 返回某习惯的全部打卡记录
func (a *API) ListActions(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	actions, err := a.actions.ListForHabit(habitID)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	items := make([]gin.H, 0, len(actions))
	for _, action := range actions {
		items = append(items, gin.H{
			"id":        action.ID,
			"habit_id":  action.HabitID,
			"date":      action.LogDate.In(a.loc).Format(dateFormat),
			"timestamp": action.Timestamp.In(a.loc).Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"actions": items})
}

func (a *API) parseHabitInput(c *gin.Context) (service.HabitInput, bool) {
	var payload habitPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return service.HabitInput{}, false
		}
	} else {
		payload.Name = c.PostForm("name")
		payload.Color = c.PostForm("color")
		payload.Notes = c.PostForm("notes")
	}

	return service.HabitInput{
		Name:  payload.Name,
		Color: db.HabitColor(strings.ToLower(strings.TrimSpace(payload.Color))),
		Notes: payload.Notes,
	}, true
}

// resolveToggleInstant 解析打卡时刻：优先 Timestamp，其次 Date 当天零点，缺省为当前时刻
func resolveToggleInstant(payload togglePayload, loc *time.Location) (time.Time, bool) {
	if raw := strings.TrimSpace(payload.Timestamp); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, false
		}
		return at, true
	}

	if raw := strings.TrimSpace(payload.Date); raw != "" {
		at, err := time.ParseInLocation(dateFormat, raw, loc)
		if err != nil {
			return time.Time{}, false
		}
		return at, true
	}

	return time.Now(), true
}

func habitToPayload(habit db.Habit) gin.H {
	return gin.H{
		"id":       habit.ID,
		"name":     habit.Name,
		"color":    string(habit.Color),
		"notes":    habit.Notes,
		"archived": habit.Archived,
	}
}

func historyToPayload(history service.ActionHistory) gin.H {
	switch history.Kind {
	case service.HistoryStreak:
		return gin.H{"kind": "streak", "days": history.Days}
	case service.HistoryMissedDays:
		return gin.H{"kind": "missed_days", "days": history.Days}
	default:
		return gin.H{"kind": "clean"}
	}
}

func handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "习惯不存在")
	case errors.Is(err, service.ErrHabitArchived):
		respondError(c, http.StatusConflict, "习惯已归档")
	case errors.Is(err, service.ErrInvalidHabitColor), errors.Is(err, service.ErrInvalidArgument):
		respondError(c, http.StatusBadRequest, "请求参数不合法")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
