package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"habit-reminder/internal/model"
	"habit-reminder/internal/notify"
	"habit-reminder/internal/repository"
)

// InsightsProvider computes a user's weekly aggregates. Kept behind an
// interface so a dedicated analytics service can replace the store-backed
// default without touching the scheduler.
type InsightsProvider interface {
	Insights(ctx context.Context, user model.User, now time.Time) (notify.Insights, error)
}

// ErrDigestDispatch reports a failed digest delivery; the run is not
// recorded, so the next trigger within the week retries.
var ErrDigestDispatch = errors.New("digest dispatch failed")

// DigestScheduler sends one weekly summary per user, at most once per ISO
// week.
type DigestScheduler struct {
	users    *repository.UserRepository
	digests  *repository.DigestRepository
	insights InsightsProvider
	notifier notify.Notifier
	now      Clock
}

func NewDigestScheduler(
	users *repository.UserRepository,
	digests *repository.DigestRepository,
	insights InsightsProvider,
	notifier notify.Notifier,
	now Clock,
) *DigestScheduler {
	if now == nil {
		now = time.Now
	}
	return &DigestScheduler{
		users:    users,
		digests:  digests,
		insights: insights,
		notifier: notifier,
		now:      now,
	}
}

// Run sends the weekly digest to one user. Returns sent=false without error
// when a digest already went out this ISO week.
func (d *DigestScheduler) Run(ctx context.Context, user model.User) (bool, error) {
	period := model.ISOWeek(d.now())

	exists, err := d.digests.Exists(ctx, user.ID, period)
	if err != nil {
		return false, fmt.Errorf("digest lookup user %d: %w", user.ID, err)
	}
	if exists {
		return false, nil
	}

	insights, err := d.insights.Insights(ctx, user, d.now())
	if err != nil {
		return false, fmt.Errorf("digest insights user %d: %w", user.ID, err)
	}

	if !d.notifier.SendWeeklyDigest(ctx, user, insights) {
		return false, fmt.Errorf("user %d: %w", user.ID, ErrDigestDispatch)
	}

	err = d.digests.Record(ctx, &model.DigestRun{
		UserID:    user.ID,
		Period:    period,
		RanAt:     d.now(),
		CountSent: 1,
	})
	if errors.Is(err, repository.ErrDigestExists) {
		// Lost a race with a concurrent run; the digest went out, treat as sent.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RunAll digests every known user, isolating per-user failures.
func (d *DigestScheduler) RunAll(ctx context.Context) error {
	users, err := d.users.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("digest run: %w", err)
	}
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := d.Run(ctx, user); err != nil {
			log.Printf("digest user %d: %v", user.ID, err)
		}
	}
	return nil
}

// StoreInsights derives digest aggregates straight from the event log and
// streak snapshots.
type StoreInsights struct {
	habits  *repository.HabitRepository
	events  *repository.EventRepository
	streaks *repository.StreakRepository
}

func NewStoreInsights(habits *repository.HabitRepository, events *repository.EventRepository, streaks *repository.StreakRepository) *StoreInsights {
	return &StoreInsights{habits: habits, events: events, streaks: streaks}
}

// Insights reports the 7-day completion rate (distinct check-in days against
// each habit's expected cadence) and a 0-100 streak-health score (each habit
// contributes its current streak, saturating at ten days).
func (p *StoreInsights) Insights(ctx context.Context, user model.User, now time.Time) (notify.Insights, error) {
	habits, err := p.habits.ListByUser(ctx, user.ID)
	if err != nil {
		return notify.Insights{}, fmt.Errorf("list habits: %w", err)
	}
	if len(habits) == 0 {
		return notify.Insights{}, nil
	}

	var done, expected, health int
	for _, habit := range habits {
		events, err := p.events.ListSince(ctx, habit.ID, now.AddDate(0, 0, -7))
		if err != nil {
			return notify.Insights{}, fmt.Errorf("list events: %w", err)
		}
		loc := habit.Location()
		days := make(map[string]bool)
		for _, ev := range events {
			if ev.Type == model.EventCheckin {
				days[ev.Timestamp.In(loc).Format("2006-01-02")] = true
			}
		}
		done += len(days)
		expected += expectedPerWeek(habit)

		summary := SummarizeStreak(habit, events, now)
		streak := summary.CurrentStreak
		if streak > 10 {
			streak = 10
		}
		health += streak * 10
	}

	insights := notify.Insights{StreakHealthScore: health / len(habits)}
	if expected > 0 {
		insights.CompletionRate = float64(done) / float64(expected)
		if insights.CompletionRate > 1 {
			insights.CompletionRate = 1
		}
	}
	return insights, nil
}

func expectedPerWeek(habit model.Habit) int {
	switch habit.ScheduleType {
	case model.ScheduleTimesPerWeek:
		if habit.TimesPerWeek > 0 {
			return habit.TimesPerWeek
		}
		return 7
	case model.ScheduleWeekdays:
		n := 0
		for _, part := range strings.Split(habit.Weekdays, ",") {
			if _, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				n++
			}
		}
		if n > 0 && n <= 7 {
			return n
		}
		return 7
	default:
		return 7
	}
}
