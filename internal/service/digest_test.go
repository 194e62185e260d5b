package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"habit-reminder/internal/model"
	"habit-reminder/internal/repository"
)

func TestDigestRun_IdempotentPerWeek(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	digests := repository.NewDigestRepository(db)
	habits := repository.NewHabitRepository(db)
	events := repository.NewEventRepository(db)
	streaks := repository.NewStreakRepository(db)
	notifier := newFakeNotifier()

	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	sched := NewDigestScheduler(users, digests, NewStoreInsights(habits, events, streaks), notifier, func() time.Time { return now })

	user, err := users.UpsertFromTelegram(context.Background(), 100, "Ann", "", "ann")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	sent, err := sched.Run(context.Background(), *user)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !sent {
		t.Fatal("first run should send")
	}

	sent, err = sched.Run(context.Background(), *user)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sent {
		t.Error("second run in the same ISO week must not send")
	}

	var count int64
	if err := db.Model(&model.DigestRun{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if count != 1 {
		t.Errorf("digest runs = %d, want exactly 1", count)
	}
	if len(notifier.digests) != 1 {
		t.Errorf("dispatches = %d, want 1", len(notifier.digests))
	}
}

func TestDigestRun_NextWeekSendsAgain(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	digests := repository.NewDigestRepository(db)
	habits := repository.NewHabitRepository(db)
	events := repository.NewEventRepository(db)
	streaks := repository.NewStreakRepository(db)
	notifier := newFakeNotifier()

	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	sched := NewDigestScheduler(users, digests, NewStoreInsights(habits, events, streaks), notifier, clock)

	user, err := users.UpsertFromTelegram(context.Background(), 100, "Ann", "", "ann")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := sched.Run(context.Background(), *user); err != nil {
		t.Fatalf("first run: %v", err)
	}
	now = now.AddDate(0, 0, 7)
	sent, err := sched.Run(context.Background(), *user)
	if err != nil {
		t.Fatalf("next week run: %v", err)
	}
	if !sent {
		t.Error("a new ISO week should send again")
	}
}

func TestDigestRun_DispatchFailureIsRetriable(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	digests := repository.NewDigestRepository(db)
	habits := repository.NewHabitRepository(db)
	events := repository.NewEventRepository(db)
	streaks := repository.NewStreakRepository(db)
	notifier := newFakeNotifier()
	notifier.digestOK = false

	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	sched := NewDigestScheduler(users, digests, NewStoreInsights(habits, events, streaks), notifier, func() time.Time { return now })

	user, err := users.UpsertFromTelegram(context.Background(), 100, "Ann", "", "ann")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	sent, err := sched.Run(context.Background(), *user)
	if sent || !errors.Is(err, ErrDigestDispatch) {
		t.Fatalf("got sent=%v err=%v, want dispatch failure", sent, err)
	}

	// No run row was written, so a later trigger in the week retries.
	notifier.digestOK = true
	sent, err = sched.Run(context.Background(), *user)
	if err != nil || !sent {
		t.Errorf("retry got sent=%v err=%v, want send", sent, err)
	}
}

func TestStoreInsights_ComputesRateAndHealth(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	habits := repository.NewHabitRepository(db)
	events := repository.NewEventRepository(db)
	streaks := repository.NewStreakRepository(db)

	ctx := context.Background()
	user, err := users.UpsertFromTelegram(ctx, 100, "Ann", "", "ann")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	habit := &model.Habit{UserID: user.ID, Title: "Run", ScheduleType: model.ScheduleDaily, Timezone: "UTC", GracePerWeek: 1}
	if err := habits.Create(ctx, habit); err != nil {
		t.Fatalf("create habit: %v", err)
	}

	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	// Check-ins on today and the two days before: 3 of 7 expected.
	for d := 0; d < 3; d++ {
		err := events.Append(ctx, &model.Event{
			HabitID:   habit.ID,
			Type:      model.EventCheckin,
			Timestamp: now.AddDate(0, 0, -d),
		})
		if err != nil {
			t.Fatalf("append event: %v", err)
		}
	}

	insights, err := NewStoreInsights(habits, events, streaks).Insights(ctx, *user, now)
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if insights.CompletionRate < 0.42 || insights.CompletionRate > 0.44 {
		t.Errorf("completion rate = %v, want ~3/7", insights.CompletionRate)
	}
	if insights.StreakHealthScore != 30 {
		t.Errorf("streak health = %d, want 30 for a 3-day streak", insights.StreakHealthScore)
	}
}

func TestISOWeekPeriodKey(t *testing.T) {
	// Jan 1 2027 falls in ISO week 53 of 2026.
	got := model.ISOWeek(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	if got != "2026-W53" {
		t.Errorf("ISOWeek = %q, want 2026-W53", got)
	}
}
