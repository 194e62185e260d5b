package model

import "time"

// ReminderSend marks that a reminder went out for a habit on a local date.
// The unique index keeps sends to one per habit per day even across restarts.
// OutcomeRecorded flips once the send is resolved as a success (check-in seen
// the same day) or a failure (day ended without one).
type ReminderSend struct {
	ID              uint   `gorm:"primaryKey"`
	HabitID         uint   `gorm:"uniqueIndex:idx_send_habit_date,priority:1"`
	SentOn          string `gorm:"uniqueIndex:idx_send_habit_date,priority:2"` // YYYY-MM-DD in the habit's timezone
	Hour            int
	Token           string // opaque token embedded in the check-in URL
	OutcomeRecorded bool   `gorm:"default:false"`
	CreatedAt       time.Time
}
