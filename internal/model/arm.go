package model

import "time"

// ArmStat keeps the pull/success counters for one candidate reminder hour of
// one habit. Rows are created lazily on the first pull and survive restarts;
// the table is the authoritative bandit state.
type ArmStat struct {
	ID        uint `gorm:"primaryKey"`
	HabitID   uint `gorm:"uniqueIndex:idx_arm_habit_hour,priority:1"`
	Hour      int  `gorm:"uniqueIndex:idx_arm_habit_hour,priority:2"`
	Pulls     int64
	Successes int64
	UpdatedAt time.Time
}

// Rate returns the observed success rate, or 0 for an unpulled arm.
func (a ArmStat) Rate() float64 {
	if a.Pulls == 0 {
		return 0
	}
	return float64(a.Successes) / float64(a.Pulls)
}
