package model

import (
	"strconv"
	"strings"
	"time"
)

// Supported delivery channels for reminders.
const (
	ChannelTelegram = "telegram"
)

// ReminderConfig holds per-habit reminder settings. One per habit.
// BestHour is a cached hint for the UI (last hour the selector favored);
// it is never read back as authoritative state.
type ReminderConfig struct {
	ID         uint   `gorm:"primaryKey"`
	HabitID    uint   `gorm:"uniqueIndex"`
	Channel    string `gorm:"default:telegram"`
	Days       string // comma-separated time.Weekday values; empty means every day
	StartHour  int
	EndHour    int
	QuietStart *int
	QuietEnd   *int
	BestHour   *int
	Timezone   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DayEnabled reports whether reminders are allowed on the given weekday.
func (r ReminderConfig) DayEnabled(day time.Weekday) bool {
	if strings.TrimSpace(r.Days) == "" {
		return true
	}
	for _, part := range strings.Split(r.Days, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if time.Weekday(n) == day {
			return true
		}
	}
	return false
}
