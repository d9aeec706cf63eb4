package service

import (
	"cmp"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/habitlog/internal/calendar"
)

// heatmapBucketCount 是热力图的最大离散色阶数
const heatmapBucketCount = 5

// Telemetry 在聚合失败时接收上报；实现不得 panic
type Telemetry interface {
	LogNonFatal(operation string, err error)
}

type logTelemetry struct{}

func (logTelemetry) LogNonFatal(operation string, err error) {
	log.Printf("insight %s failed: %v", operation, err)
}

// BucketInfo 描述热力图中单日的桶号与原始值
type BucketInfo struct {
	BucketIndex int
	Value       int
}

// BucketLegend 是图例项：落入某桶的最大原始值
type BucketLegend struct {
	BucketIndex int
	MaxValue    int
}

// HeatmapMonth 是单个日历月的热力图视图
// DayMap 以 2006-01-02 格式的日期为键，只包含有打卡的日期
type HeatmapMonth struct {
	YearMonth       time.Time
	DayMap          map[string]BucketInfo
	TotalHabitCount int
	BucketCount     int
	BucketMaxValues []BucketLegend
}

// HabitTopDay 描述某习惯打卡最多的星期
type HabitTopDay struct {
	HabitID uint
	Name    string
	Weekday time.Weekday
	Count   int
}

// ChartPoint 是动作计数图表的一个数据点
type ChartPoint struct {
	Label string
	Count int
}

// ChartType 区分周图与月图
type ChartType string

const (
	ChartWeekly  ChartType = "weekly"
	ChartMonthly ChartType = "monthly"
)

// ParseChartType 解析图表类型参数，空值默认周图
func ParseChartType(raw string) (ChartType, error) {
	switch ChartType(raw) {
	case "", ChartWeekly:
		return ChartWeekly, nil
	case ChartMonthly:
		return ChartMonthly, nil
	default:
		return "", fmt.Errorf("%w: unknown chart type %q", ErrInvalidArgument, raw)
	}
}

// Insights 汇集四个独立读取操作的结果槽位。
// 槽位之间互不影响：单个失败不会中断其余操作。
type Insights struct {
	Heatmap   Result[HeatmapMonth]
	TopHabits Result[[]HabitActionCount]
	TopDays   Result[[]HabitTopDay]
	Chart     Result[[]ChartPoint]
}

// InsightService 是统计聚合引擎：把事件日志的查询结果变换为
// 热力图、排行榜、最佳星期表和动作计数图表。
// 引擎内部没有共享可变状态，每个方法对给定输入都是纯函数。
type InsightService struct {
	store     EventStore
	telemetry Telemetry
	loc       *time.Location
	now       func() time.Time
}

// NewInsightService 构造 InsightService，失败默认上报到标准日志
func NewInsightService(store EventStore, loc *time.Location) *InsightService {
	if loc == nil {
		loc = time.Local
	}
	return &InsightService{
		store:     store,
		telemetry: logTelemetry{},
		loc:       loc,
		now:       time.Now,
	}
}

// WithTelemetry 替换失败上报实现
func (s *InsightService) WithTelemetry(t Telemetry) *InsightService {
	if t != nil {
		s.telemetry = t
	}
	return s
}

// WithClock 允许测试固定当前时间
func (s *InsightService) WithClock(now func() time.Time) *InsightService {
	if now != nil {
		s.now = now
	}
	return s
}

// BuildHeatmap 计算指定月份的热力图。
// 桶数取 min(5, 当月最大日计数+1)；当月无打卡时桶数为 0，即完全不着色。
// habitCount 为每次请求读取一次的快照，供上层判断空态。
func (s *InsightService) BuildHeatmap(yearMonth time.Time) (HeatmapMonth, error) {
	habitCount, err := s.store.TotalHabitCount()
	if err != nil {
		return HeatmapMonth{}, fmt.Errorf("query habit count: %w", err)
	}

	start := calendar.StartOfMonth(yearMonth.In(s.loc))
	end := calendar.EndOfMonth(start)

	rows, err := s.store.SumActionCountByDay(start, end)
	if err != nil {
		return HeatmapMonth{}, fmt.Errorf("query daily action counts: %w", err)
	}

	maxValue := 0
	for _, row := range rows {
		if row.Count > maxValue {
			maxValue = row.Count
		}
	}

	bucketCount := 0
	if maxValue > 0 {
		bucketCount = min(heatmapBucketCount, maxValue+1)
	}

	dayMap := make(map[string]BucketInfo, len(rows))
	for _, row := range rows {
		key := row.Date.In(s.loc).Format(dayKeyFormat)
		dayMap[key] = BucketInfo{
			BucketIndex: calendar.Bucketize(row.Count, maxValue, bucketCount),
			Value:       row.Count,
		}
	}

	legend := make([]BucketLegend, 0, bucketCount)
	for b := 0; b < bucketCount; b++ {
		legend = append(legend, BucketLegend{
			BucketIndex: b,
			MaxValue:    calendar.MaxValueInBucket(b, maxValue, bucketCount),
		})
	}

	return HeatmapMonth{
		YearMonth:       start,
		DayMap:          dayMap,
		TotalHabitCount: habitCount,
		BucketCount:     bucketCount,
		BucketMaxValues: legend,
	}, nil
}

// TopHabits 返回按总打卡数排序的习惯榜。
// 并列时先完成首次打卡者靠前；零打卡习惯排在最后，按 ID 升序保证可复现。
func (s *InsightService) TopHabits(limit int) ([]HabitActionCount, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be at least 1", ErrInvalidArgument)
	}

	rows, err := s.store.HabitActionCounts()
	if err != nil {
		return nil, fmt.Errorf("query habit action counts: %w", err)
	}

	slices.SortFunc(rows, func(a, b HabitActionCount) int {
		if diff := cmp.Compare(b.Count, a.Count); diff != 0 {
			return diff
		}
		switch {
		case a.FirstDay != nil && b.FirstDay != nil:
			if diff := cmp.Compare(a.FirstDay.Unix(), b.FirstDay.Unix()); diff != 0 {
				return diff
			}
		case a.FirstDay != nil:
			return -1
		case b.FirstDay != nil:
			return 1
		}
		return cmp.Compare(a.HabitID, b.HabitID)
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// TopDays 为每个未归档习惯挑出打卡最多的星期。
// 并列时取 ISO 序号最小者（周一优先于周日）；从未打卡的习惯
// 按既定约定落到周日、计数 0。
func (s *InsightService) TopDays() ([]HabitTopDay, error) {
	rows, err := s.store.HabitDayRows()
	if err != nil {
		return nil, fmt.Errorf("query habit day rows: %w", err)
	}

	result := make([]HabitTopDay, 0)
	var counts [8]int // 按 ISO 序号 1..7 计数

	flush := func(habitID uint, name string) {
		top := HabitTopDay{HabitID: habitID, Name: name, Weekday: time.Sunday}
		for iso := 1; iso <= 7; iso++ {
			if counts[iso] > top.Count {
				top.Count = counts[iso]
				if iso == 7 {
					top.Weekday = time.Sunday
				} else {
					top.Weekday = time.Weekday(iso)
				}
			}
		}
		result = append(result, top)
		counts = [8]int{}
	}

	var currentID uint
	var currentName string
	started := false
	for _, row := range rows {
		if started && row.HabitID != currentID {
			flush(currentID, currentName)
		}
		if !started || row.HabitID != currentID {
			currentID, currentName = row.HabitID, row.Name
			started = true
		}
		if row.LogDate != nil {
			counts[calendar.DayOfWeekIndex(row.LogDate.In(s.loc))]++
		}
	}
	if started {
		flush(currentID, currentName)
	}

	return result, nil
}

// ActionCountChart 按周或月聚合某习惯的打卡数。
// 输出是稠密序列：从首次打卡所在周期到当前周期，无打卡的周期补零，
// 按时间升序。从未打卡的习惯得到空序列。
func (s *InsightService) ActionCountChart(habitID uint, chartType ChartType) ([]ChartPoint, error) {
	if chartType != ChartWeekly && chartType != ChartMonthly {
		return nil, fmt.Errorf("%w: unknown chart type %q", ErrInvalidArgument, chartType)
	}

	days, err := s.store.ActionsForHabit(habitID)
	if err != nil {
		return nil, fmt.Errorf("query actions for habit: %w", err)
	}
	if len(days) == 0 {
		return []ChartPoint{}, nil
	}

	label := calendar.WeekLabel
	periodStart := calendar.StartOfISOWeek
	step := func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
	if chartType == ChartMonthly {
		label = calendar.MonthLabel
		periodStart = calendar.StartOfMonth
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	}

	countByPeriod := make(map[string]int)
	for _, day := range days {
		countByPeriod[label(day.In(s.loc))]++
	}

	first := periodStart(days[0].In(s.loc))
	last := periodStart(s.now().In(s.loc))

	points := make([]ChartPoint, 0)
	for period := first; !period.After(last); period = step(period) {
		key := label(period)
		points = append(points, ChartPoint{Label: key, Count: countByPeriod[key]})
	}
	return points, nil
}

// FetchAll 并发执行各项聚合并等待全部完成。
// 每个槽位独立成功或失败；失败先经遥测上报，再落入对应槽位。
// chartHabitID 为 0 表示未选中图表习惯，此时跳过图表查询，Chart 槽位保持 Loading。
func (s *InsightService) FetchAll(yearMonth time.Time, chartHabitID uint, chartType ChartType) Insights {
	insights := Insights{
		Heatmap:   Loading[HeatmapMonth](),
		TopHabits: Loading[[]HabitActionCount](),
		TopDays:   Loading[[]HabitTopDay](),
		Chart:     Loading[[]ChartPoint](),
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		insights.Heatmap = resultOf(s.telemetry, "heatmap", func() (HeatmapMonth, error) {
			return s.BuildHeatmap(yearMonth)
		})
	}()
	go func() {
		defer wg.Done()
		insights.TopHabits = resultOf(s.telemetry, "top habits", func() ([]HabitActionCount, error) {
			return s.TopHabits(100)
		})
	}()
	go func() {
		defer wg.Done()
		insights.TopDays = resultOf(s.telemetry, "top days", func() ([]HabitTopDay, error) {
			return s.TopDays()
		})
	}()
	if chartHabitID != 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			insights.Chart = resultOf(s.telemetry, "action chart", func() ([]ChartPoint, error) {
				return s.ActionCountChart(chartHabitID, chartType)
			})
		}()
	}

	wg.Wait()
	return insights
}

func resultOf[T any](telemetry Telemetry, operation string, fetch func() (T, error)) Result[T] {
	value, err := fetch()
	if err != nil {
		telemetry.LogNonFatal(operation, err)
		return Failure[T](err)
	}
	return Success(value)
}
