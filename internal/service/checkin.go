package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"habit-reminder/internal/model"
	"habit-reminder/internal/repository"
)

// CheckinService records inbound check-ins and misses: it appends the event,
// refreshes the streak snapshot, and closes the feedback loop to the bandit
// when a reminder went out earlier the same day.
type CheckinService struct {
	habits  *repository.HabitRepository
	events  *repository.EventRepository
	streaks *repository.StreakRepository
	sends   *repository.SendRepository
	bandit  *BanditSelector
	now     Clock
}

func NewCheckinService(
	habits *repository.HabitRepository,
	events *repository.EventRepository,
	streaks *repository.StreakRepository,
	sends *repository.SendRepository,
	bandit *BanditSelector,
	now Clock,
) *CheckinService {
	if now == nil {
		now = time.Now
	}
	return &CheckinService{
		habits:  habits,
		events:  events,
		streaks: streaks,
		sends:   sends,
		bandit:  bandit,
		now:     now,
	}
}

// RecordCheckin appends a check-in for the habit and returns the refreshed
// streak summary.
func (s *CheckinService) RecordCheckin(ctx context.Context, habitID uint, payload string) (StreakSummary, error) {
	habit, err := s.habits.FindByID(ctx, habitID)
	if err != nil {
		return StreakSummary{}, fmt.Errorf("checkin habit %d: %w", habitID, err)
	}

	now := s.now()
	if err := s.events.Append(ctx, &model.Event{
		HabitID:   habit.ID,
		Type:      model.EventCheckin,
		Timestamp: now,
		Payload:   payload,
	}); err != nil {
		return StreakSummary{}, err
	}

	events, err := s.events.ListSince(ctx, habit.ID, now.Add(-eventWindow))
	if err != nil {
		return StreakSummary{}, fmt.Errorf("load events: %w", err)
	}
	summary := SummarizeStreak(*habit, events, now)
	if err := s.streaks.Upsert(ctx, &model.StreakState{
		HabitID:    habit.ID,
		StartDate:  summary.StartDate,
		LengthDays: summary.CurrentStreak,
		GraceUsed:  summary.GraceUsed,
		UpdatedAt:  now,
	}); err != nil {
		return summary, err
	}

	s.rewardTodaysSend(ctx, *habit, now)
	return summary, nil
}

// RecordMiss appends an explicit miss event.
func (s *CheckinService) RecordMiss(ctx context.Context, habitID uint, payload string) error {
	habit, err := s.habits.FindByID(ctx, habitID)
	if err != nil {
		return fmt.Errorf("miss habit %d: %w", habitID, err)
	}
	return s.events.Append(ctx, &model.Event{
		HabitID:   habit.ID,
		Type:      model.EventMiss,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

// rewardTodaysSend marks today's reminder, if one went out, as a success for
// its arm. Failures here never fail the check-in itself.
func (s *CheckinService) rewardTodaysSend(ctx context.Context, habit model.Habit, now time.Time) {
	today := now.In(habit.Location()).Format("2006-01-02")
	send, err := s.sends.FindForDate(ctx, habit.ID, today)
	if err != nil {
		log.Printf("reward lookup habit %d: %v", habit.ID, err)
		return
	}
	if send == nil || send.OutcomeRecorded {
		return
	}
	if err := s.bandit.RecordOutcome(ctx, habit.ID, send.Hour, true); err != nil {
		log.Printf("record outcome habit %d: %v", habit.ID, err)
		return
	}
	if err := s.sends.MarkResolved(ctx, send.ID); err != nil {
		log.Printf("resolve send habit %d: %v", habit.ID, err)
	}
}
