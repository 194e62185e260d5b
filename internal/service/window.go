package service

import (
	"fmt"

	"habit-reminder/internal/model"
)

// errBadConfig marks malformed reminder configuration. Habits with a bad
// config are skipped and logged; they never abort a tick.
type errBadConfig struct {
	reason string
}

func (e errBadConfig) Error() string { return "bad reminder config: " + e.reason }

// IsConfigError reports whether err stems from a malformed reminder config.
func IsConfigError(err error) bool {
	_, ok := err.(errBadConfig)
	return ok
}

// ValidateReminder checks a reminder config for a usable window and channel.
func ValidateReminder(cfg model.ReminderConfig) error {
	if cfg.Channel != model.ChannelTelegram {
		return errBadConfig{reason: fmt.Sprintf("unsupported channel %q", cfg.Channel)}
	}
	if cfg.StartHour < 0 || cfg.StartHour > 23 || cfg.EndHour < 0 || cfg.EndHour > 23 {
		return errBadConfig{reason: fmt.Sprintf("window hours %d-%d out of range", cfg.StartHour, cfg.EndHour)}
	}
	if cfg.StartHour > cfg.EndHour {
		return errBadConfig{reason: fmt.Sprintf("window start %d after end %d", cfg.StartHour, cfg.EndHour)}
	}
	if (cfg.QuietStart == nil) != (cfg.QuietEnd == nil) {
		return errBadConfig{reason: "quiet hours need both start and end"}
	}
	if cfg.QuietStart != nil {
		if *cfg.QuietStart < 0 || *cfg.QuietStart > 23 || *cfg.QuietEnd < 0 || *cfg.QuietEnd > 23 {
			return errBadConfig{reason: fmt.Sprintf("quiet hours %d-%d out of range", *cfg.QuietStart, *cfg.QuietEnd)}
		}
	}
	return nil
}

// CandidateHours computes the hours a reminder may go out at: the inclusive
// window range minus quiet hours. A quiet range with start > end wraps past
// midnight and removes both tails (h >= start or h <= end). May return an
// empty slice; callers fall back to the window's start hour.
func CandidateHours(cfg model.ReminderConfig) []int {
	var hours []int
	for h := cfg.StartHour; h <= cfg.EndHour; h++ {
		if cfg.QuietStart != nil && quietCovers(*cfg.QuietStart, *cfg.QuietEnd, h) {
			continue
		}
		hours = append(hours, h)
	}
	return hours
}

func quietCovers(start, end, hour int) bool {
	if start <= end {
		return hour >= start && hour <= end
	}
	// Wraps past midnight: union of both tails.
	return hour >= start || hour <= end
}
