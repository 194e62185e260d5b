package model

import "time"

// Event types.
const (
	EventCheckin = "checkin"
	EventMiss    = "miss"
)

// Event is one immutable check-in or miss fact. The events table is
// append-only and is the sole source of truth for streaks and rewards.
type Event struct {
	ID        uint      `gorm:"primaryKey"`
	HabitID   uint      `gorm:"index:idx_event_habit_ts,priority:1"`
	Type      string    // checkin or miss
	Timestamp time.Time `gorm:"index:idx_event_habit_ts,priority:2"`
	Payload   string
	CreatedAt time.Time
}
