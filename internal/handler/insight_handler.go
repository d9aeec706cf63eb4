package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/service"
)

const (
	monthFormat     = "2006-01"
	defaultTopLimit = 10
)

// GetHeatmap 返回指定月份的打卡热力图，month 参数形如 2021-03，缺省为当月
func (a *API) GetHeatmap(c *gin.Context) {
	yearMonth, ok := a.resolveMonth(c.Query("month"))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的月份")
		return
	}

	heatmap, err := a.insights.BuildHeatmap(yearMonth)
	if err != nil {
		handleInsightError(c, err)
		return
	}

	c.JSON(http.StatusOK, heatmapToPayload(heatmap))
}

// GetTopHabits 返回按总打卡数排序的习惯榜
func (a *API) GetTopHabits(c *gin.Context) {
	limit := defaultTopLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的数量限制")
			return
		}
		limit = parsed
	}

	top, err := a.insights.TopHabits(limit)
	if err != nil {
		handleInsightError(c, err)
		return
	}

	items := make([]gin.H, 0, len(top))
	for _, entry := range top {
		items = append(items, a.topHabitToPayload(entry))
	}

	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// GetTopDays 返回每个习惯打卡最多的星期
func (a *API) GetTopDays(c *gin.Context) {
	topDays, err := a.insights.TopDays()
	if err != nil {
		handleInsightError(c, err)
		return
	}

	items := make([]gin.H, 0, len(topDays))
	for _, entry := range topDays {
		items = append(items, topDayToPayload(entry))
	}

	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// GetHabitChart 返回某习惯的周/月打卡计数序列
func (a *API) GetHabitChart(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	chartType, err := service.ParseChartType(c.Query("type"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的图表类型")
		return
	}

	points, err := a.insights.ActionCountChart(habitID, chartType)
	if err != nil {
		handleInsightError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit_id": habitID, "type": string(chartType), "points": chartToPayload(points)})
}

// GetInsights 并发执行各项聚合并返回各槽位的独立结果。
// 单个槽位失败不影响其余槽位，整体始终返回 200。
// 图表槽位仅在携带 habit 查询参数时出现。
func (a *API) GetInsights(c *gin.Context) {
	yearMonth, ok := a.resolveMonth(c.Query("month"))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的月份")
		return
	}

	chartType, err := service.ParseChartType(c.Query("type"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的图表类型")
		return
	}

	var chartHabitID uint
	if raw := strings.TrimSpace(c.Query("habit")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的习惯ID")
			return
		}
		chartHabitID = uint(parsed)
	}

	snapshot := a.insights.FetchAll(yearMonth, chartHabitID, chartType)

	payload := gin.H{
		"heatmap": slotToPayload(snapshot.Heatmap, func(value service.HeatmapMonth) any {
			return heatmapToPayload(value)
		}),
		"top_habits": slotToPayload(snapshot.TopHabits, func(value []service.HabitActionCount) any {
			items := make([]gin.H, 0, len(value))
			for _, entry := range value {
				items = append(items, a.topHabitToPayload(entry))
			}
			return items
		}),
		"top_days": slotToPayload(snapshot.TopDays, func(value []service.HabitTopDay) any {
			items := make([]gin.H, 0, len(value))
			for _, entry := range value {
				items = append(items, topDayToPayload(entry))
			}
			return items
		}),
	}
	if chartHabitID != 0 {
		payload["chart"] = slotToPayload(snapshot.Chart, func(value []service.ChartPoint) any {
			return chartToPayload(value)
		})
	}

	c.JSON(http.StatusOK, payload)
}

func (a *API) resolveMonth(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().In(a.loc), true
	}

	yearMonth, err := time.ParseInLocation(monthFormat, raw, a.loc)
	if err != nil {
		return time.Time{}, false
	}
	return yearMonth, true
}

// slotToPayload 把单个结果槽位序列化为 {status, value|error}
func slotToPayload[T any](slot service.Result[T], serialize func(T) any) gin.H {
	if value, ok := slot.Value(); ok {
		return gin.H{"status": "success", "value": serialize(value)}
	}
	if err := slot.Err(); err != nil {
		return gin.H{"status": "failure", "error": err.Error()}
	}
	return gin.H{"status": "loading"}
}

func heatmapToPayload(heatmap service.HeatmapMonth) gin.H {
	days := make(gin.H, len(heatmap.DayMap))
	for date, info := range heatmap.DayMap {
		days[date] = gin.H{"bucket": info.BucketIndex, "value": info.Value}
	}

	legend := make([]gin.H, 0, len(heatmap.BucketMaxValues))
	for _, entry := range heatmap.BucketMaxValues {
		legend = append(legend, gin.H{"bucket": entry.BucketIndex, "max_value": entry.MaxValue})
	}

	return gin.H{
		"month":             heatmap.YearMonth.Format(monthFormat),
		"days":              days,
		"total_habit_count": heatmap.TotalHabitCount,
		"bucket_count":      heatmap.BucketCount,
		"legend":            legend,
	}
}

func (a *API) topHabitToPayload(entry service.HabitActionCount) gin.H {
	item := gin.H{
		"id":    entry.HabitID,
		"name":  entry.Name,
		"count": entry.Count,
	}
	if entry.FirstDay != nil {
		item["first_day"] = entry.FirstDay.In(a.loc).Format(dateFormat)
	}
	return item
}

func topDayToPayload(entry service.HabitTopDay) gin.H {
	return gin.H{
		"id":      entry.HabitID,
		"name":    entry.Name,
		"weekday": entry.Weekday.String(),
		"count":   entry.Count,
	}
}

func chartToPayload(points []service.ChartPoint) []gin.H {
	items := make([]gin.H, 0, len(points))
	for _, point := range points {
		items = append(items, gin.H{"period": point.Label, "count": point.Count})
	}
	return items
}

func handleInsightError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		respondError(c, http.StatusBadRequest, "请求参数不合法")
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "习惯不存在")
	default:
		respondError(c, http.StatusInternalServerError, "统计计算失败")
	}
}
