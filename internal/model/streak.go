package model

import "time"

// StreakState is the cached streak snapshot for one habit. It is always
// recomputed from events, never mutated independently.
type StreakState struct {
	ID         uint `gorm:"primaryKey"`
	HabitID    uint `gorm:"uniqueIndex"`
	StartDate  time.Time
	LengthDays int
	GraceUsed  int
	UpdatedAt  time.Time
}
