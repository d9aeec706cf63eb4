package service

import "time"

// HistoryKind 区分打卡历史的三种定性标签
type HistoryKind int

const (
	// HistoryClean 表示既无连胜也无缺卡：零记录、仅今天一次、或昨天刚完成
	HistoryClean HistoryKind = iota
	// HistoryStreak 表示以今天结尾的连续完成
	HistoryStreak
	// HistoryMissedDays 表示自上次完成以来的连续缺卡
	HistoryMissedDays
)

// ActionHistory 是对单个习惯近期打卡的定性分类，每次查询即时重算，不持久化
type ActionHistory struct {
	Kind HistoryKind
	Days int
}

// historyLookbackDays 限定缺卡回溯的最大天数
const historyLookbackDays = 365

const dayKeyFormat = "2006-01-02"

// ClassifyActionHistory 根据完成日期集合与今天计算历史标签。
// 仅今天完成一次记为 Clean 而非 Streak(1)；从未打卡的习惯按约定返回 Clean，
// 调用方应通过排行榜的计数字段区分「无数据」。
func ClassifyActionHistory(completions []time.Time, today time.Time) ActionHistory {
	if len(completions) == 0 {
		return ActionHistory{Kind: HistoryClean}
	}

	done := make(map[string]struct{}, len(completions))
	for _, day := range completions {
		done[day.Format(dayKeyFormat)] = struct{}{}
	}
	completed := func(day time.Time) bool {
		_, ok := done[day.Format(dayKeyFormat)]
		return ok
	}

	if completed(today) {
		streak := 1
		for day := today.AddDate(0, 0, -1); completed(day); day = day.AddDate(0, 0, -1) {
			streak++
		}
		if streak >= 2 {
			return ActionHistory{Kind: HistoryStreak, Days: streak}
		}
		return ActionHistory{Kind: HistoryClean}
	}

	gap := 0
	for i := 1; i <= historyLookbackDays; i++ {
		if completed(today.AddDate(0, 0, -i)) {
			break
		}
		gap++
	}

	if gap == 0 {
		// 昨天刚完成，尚未构成缺卡
		return ActionHistory{Kind: HistoryClean}
	}

	// 今天也计为缺卡日：上次完成在 n 天前即缺卡 n 天
	missed := gap + 1
	if missed > historyLookbackDays {
		missed = historyLookbackDays
	}
	return ActionHistory{Kind: HistoryMissedDays, Days: missed}
}
