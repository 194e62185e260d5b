package service

import (
	"testing"
	"time"

	"habit-reminder/internal/model"
)

func utcHabit(grace int) model.Habit {
	return model.Habit{ID: 1, Title: "Read", Timezone: "UTC", GracePerWeek: grace}
}

func checkinAt(t time.Time) model.Event {
	return model.Event{HabitID: 1, Type: model.EventCheckin, Timestamp: t}
}

func TestSummarizeStreak_ConsecutiveDays(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	events := []model.Event{
		checkinAt(now.Add(-2 * time.Hour)),
		checkinAt(now.AddDate(0, 0, -1)),
	}

	summary := SummarizeStreak(utcHabit(1), events, now)
	if summary.CurrentStreak != 2 {
		t.Errorf("streak = %d, want 2", summary.CurrentStreak)
	}
	if summary.DueToday {
		t.Error("expected due-today false after a same-day checkin")
	}
}

func TestSummarizeStreak_SingleGapTolerated(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	events := []model.Event{
		checkinAt(now.Add(-time.Hour)),   // today
		checkinAt(now.AddDate(0, 0, -2)), // D-2, D-1 missing
	}

	summary := SummarizeStreak(utcHabit(1), events, now)
	if summary.CurrentStreak != 2 {
		t.Errorf("streak = %d, want 2 (single gap tolerated)", summary.CurrentStreak)
	}
	if summary.GraceUsed != 1 {
		t.Errorf("grace used = %d, want 1", summary.GraceUsed)
	}
}

func TestSummarizeStreak_DoubleGapBreaks(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	events := []model.Event{
		checkinAt(now.Add(-time.Hour)),   // today
		checkinAt(now.AddDate(0, 0, -3)), // D-3; D-1 and D-2 both missing
	}

	summary := SummarizeStreak(utcHabit(1), events, now)
	if summary.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1 (two consecutive gaps break)", summary.CurrentStreak)
	}
}

func TestSummarizeStreak_DueTodayWithoutCheckin(t *testing.T) {
	now := time.Date(2026, 8, 26, 7, 0, 0, 0, time.UTC)
	events := []model.Event{
		checkinAt(now.AddDate(0, 0, -1)),
	}

	summary := SummarizeStreak(utcHabit(1), events, now)
	if !summary.DueToday {
		t.Error("expected due-today true with no checkin today")
	}
	// Yesterday's checkin still counts; today being open is not a miss.
	if summary.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", summary.CurrentStreak)
	}
	if summary.GraceUsed != 0 {
		t.Errorf("grace used = %d, want 0 for an in-progress day", summary.GraceUsed)
	}
}

func TestSummarizeStreak_MissEventsIgnoredForCounting(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	events := []model.Event{
		checkinAt(now.Add(-time.Hour)),
		{HabitID: 1, Type: model.EventMiss, Timestamp: now.AddDate(0, 0, -1)},
		checkinAt(now.AddDate(0, 0, -2)),
	}

	summary := SummarizeStreak(utcHabit(1), events, now)
	if summary.CurrentStreak != 2 {
		t.Errorf("streak = %d, want 2 (miss event is not a checkin)", summary.CurrentStreak)
	}
}

func TestSummarizeStreak_GraceClampedToAllowance(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	// Alternating pattern: checkins every other day use one grace day per
	// bridge, more than a zero-grace habit allows.
	events := []model.Event{
		checkinAt(now.Add(-time.Hour)),
		checkinAt(now.AddDate(0, 0, -2)),
		checkinAt(now.AddDate(0, 0, -4)),
	}

	summary := SummarizeStreak(utcHabit(0), events, now)
	if summary.CurrentStreak != 3 {
		t.Errorf("streak = %d, want 3", summary.CurrentStreak)
	}
	if summary.GraceUsed != 0 {
		t.Errorf("grace used = %d, want clamp to 0", summary.GraceUsed)
	}
}

func TestSummarizeStreak_TimezoneBoundaries(t *testing.T) {
	habit := utcHabit(1)
	habit.Timezone = "Asia/Tokyo"
	// 23:30 UTC on Aug 25 is already Aug 26 in Tokyo.
	now := time.Date(2026, 8, 25, 23, 30, 0, 0, time.UTC)
	events := []model.Event{
		checkinAt(time.Date(2026, 8, 25, 22, 0, 0, 0, time.UTC)), // Aug 26 local
	}

	summary := SummarizeStreak(habit, events, now)
	if summary.DueToday {
		t.Error("checkin after local midnight should count for the local today")
	}
	if summary.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", summary.CurrentStreak)
	}
}

func TestSummarizeStreak_NoEvents(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	summary := SummarizeStreak(utcHabit(1), nil, now)
	if summary.CurrentStreak != 0 || !summary.DueToday {
		t.Errorf("got streak=%d due=%v, want 0/true", summary.CurrentStreak, summary.DueToday)
	}
}
