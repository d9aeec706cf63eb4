package service

import (
	"errors"
	"testing"
	"time"

	"github.com/habitlog/internal/db"
)

func TestActionServiceToggleRoundTrip(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	habit, err := habitSvc.Create(HabitInput{Name: "写日记"})
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}

	actionSvc := NewActionService(db.DB, time.UTC)
	store := NewGormEventStore(db.DB)

	at := time.Date(2021, 3, 29, 10, 28, 0, 0, time.UTC)
	day := time.Date(2021, 3, 29, 0, 0, 0, 0, time.UTC)

	before, err := store.SumActionCountByDay(day, day)
	if err != nil {
		t.Fatalf("SumActionCountByDay returned error: %v", err)
	}
	if len(before) != 0 {
		t.Fatalf("expected sparse empty result, got %d rows", len(before))
	}

	// 开 → 关回到原状
	if err := actionSvc.Toggle(habit.ID, true, at); err != nil {
		t.Fatalf("Toggle on returned error: %v", err)
	}
	if err := actionSvc.Toggle(habit.ID, false, at); err != nil {
		t.Fatalf("Toggle off returned error: %v", err)
	}

	after, err := store.SumActionCountByDay(day, day)
	if err != nil {
		t.Fatalf("SumActionCountByDay returned error: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("expected day to return to pre-toggle state, got %d rows", len(after))
	}

	// 关闭后可重新打开同一天
	if err := actionSvc.Toggle(habit.ID, true, at); err != nil {
		t.Fatalf("re-Toggle on returned error: %v", err)
	}

	rows, err := store.SumActionCountByDay(day, day)
	if err != nil {
		t.Fatalf("SumActionCountByDay returned error: %v", err)
	}
	if len(rows) != 1 || rows[0].Count != 1 {
		t.Fatalf("expected one action on the day, got %+v", rows)
	}
}

func TestActionServiceToggleIdempotent(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	habit, err := habitSvc.Create(HabitInput{Name: "晨跑"})
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}

	actionSvc := NewActionService(db.DB, time.UTC)

	// 同一天不同时刻重复打开，仍只有一条记录
	if err := actionSvc.Toggle(habit.ID, true, time.Date(2021, 4, 16, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if err := actionSvc.Toggle(habit.ID, true, time.Date(2021, 4, 16, 20, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("second Toggle returned error: %v", err)
	}

	actions, err := actionSvc.ListForHabit(habit.ID)
	if err != nil {
		t.Fatalf("ListForHabit returned error: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
}

func TestActionServiceTimezoneDayAttribution(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	loc, err := time.LoadLocation("Europe/Budapest")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}

	habitSvc := NewHabitService(db.DB)
	habit, err := habitSvc.Create(HabitInput{Name: "冥想"})
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}

	actionSvc := NewActionService(db.DB, loc)

	// UTC 23:30 在配置时区已是次日
	if err := actionSvc.Toggle(habit.ID, true, time.Date(2021, 3, 28, 23, 30, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	actions, err := actionSvc.ListForHabit(habit.ID)
	if err != nil {
		t.Fatalf("ListForHabit returned error: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}

	got := actions[0].LogDate.In(loc)
	if got.Year() != 2021 || got.Month() != time.March || got.Day() != 29 {
		t.Fatalf("expected local day 2021-03-29, got %v", got)
	}
}

func TestActionServiceRejectsArchivedAndMissing(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	habit, err := habitSvc.Create(HabitInput{Name: "阅读"})
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}
	if _, err := habitSvc.Archive(habit.ID); err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}

	actionSvc := NewActionService(db.DB, time.UTC)

	if err := actionSvc.Toggle(habit.ID, true, time.Now()); !errors.Is(err, ErrHabitArchived) {
		t.Fatalf("expected ErrHabitArchived, got %v", err)
	}
	if err := actionSvc.Toggle(9999, true, time.Now()); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}
}
