package model

import (
	"fmt"
	"time"
)

// DigestRun records one weekly digest delivery per user. The unique index on
// (user, period) makes digest sends idempotent within an ISO week.
type DigestRun struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex:idx_digest_user_period,priority:1;index:idx_digest_user_ran"`
	Period    string    `gorm:"uniqueIndex:idx_digest_user_period,priority:2"` // ISO week, e.g. 2026-W35
	RanAt     time.Time `gorm:"index:idx_digest_user_ran"`
	CountSent int
}

// ISOWeek formats t's ISO week as a digest period key.
func ISOWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}
