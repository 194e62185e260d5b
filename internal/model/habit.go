package model

import "time"

// Schedule types supported for a habit.
const (
	ScheduleDaily        = "daily"
	ScheduleWeekdays     = "weekdays"
	ScheduleTimesPerWeek = "times_per_week"
)

// Goal types supported for a habit.
const (
	GoalCheck    = "check"
	GoalCount    = "count"
	GoalDuration = "duration"
)

// Habit represents a single tracked habit.
type Habit struct {
	ID           uint `gorm:"primaryKey"`
	UserID       uint `gorm:"index"`
	Title        string
	ScheduleType string // daily, weekdays, times_per_week
	Weekdays     string // comma-separated time.Weekday values for ScheduleWeekdays
	TimesPerWeek int
	GoalType     string // check, count, duration
	TargetValue  int
	GracePerWeek int
	Timezone     string // IANA name, e.g. Europe/Moscow
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Location resolves the habit's timezone, falling back to UTC.
func (h Habit) Location() *time.Location {
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil || h.Timezone == "" {
		return time.UTC
	}
	return loc
}
