package service

import (
	"time"

	"habit-reminder/internal/model"
)

// streakLookback bounds the backward walk; events are fed in for the last 30
// days, so walking further would only ever see empty days.
const streakLookback = 31

// StreakSummary is the derived streak view for one habit.
type StreakSummary struct {
	CurrentStreak int
	DueToday      bool
	StartDate     time.Time
	GraceUsed     int
}

// SummarizeStreak derives the current streak from a habit's recent events.
// Pure: no store access, no side effects.
//
// The rule: walk calendar days backward from today in the habit's timezone.
// A day with a check-in extends the streak; a day without one consumes the
// single-day tolerance; two empty days in a row end the walk. The tolerance
// is deliberately a fixed one day and independent of the habit's weekly
// grace allowance — GraceUsed only reports how many tolerated gap days fall
// in the trailing week, clamped to that allowance.
func SummarizeStreak(habit model.Habit, events []model.Event, now time.Time) StreakSummary {
	loc := habit.Location()
	local := now.In(loc)
	today := local.Format("2006-01-02")

	checked := make(map[string]bool)
	for _, ev := range events {
		if ev.Type != model.EventCheckin {
			continue
		}
		checked[ev.Timestamp.In(loc).Format("2006-01-02")] = true
	}

	summary := StreakSummary{DueToday: !checked[today]}

	weekCutoff := local.AddDate(0, 0, -6).Format("2006-01-02")
	cursor := local
	gaps := 0
	graceDays := 0
	pendingGap := ""
	for i := 0; i < streakLookback; i++ {
		day := cursor.Format("2006-01-02")
		if checked[day] {
			summary.CurrentStreak++
			summary.StartDate = time.Date(cursor.Year(), cursor.Month(), cursor.Day(), 0, 0, 0, 0, loc)
			gaps = 0
			// A gap only counts as grace once a check-in bridges it.
			if pendingGap != "" && pendingGap >= weekCutoff {
				graceDays++
			}
			pendingGap = ""
		} else {
			gaps++
			if gaps >= 2 {
				break
			}
			// Today is still in progress, not a miss.
			if day != today {
				pendingGap = day
			}
		}
		cursor = cursor.AddDate(0, 0, -1)
	}

	if graceDays > habit.GracePerWeek {
		graceDays = habit.GracePerWeek
	}
	summary.GraceUsed = graceDays
	return summary
}
