package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"habit-reminder/internal/model"
	"habit-reminder/internal/notify"
	"habit-reminder/internal/repository"
)

// Clock supplies the current time; injected so ticks are testable.
type Clock func() time.Time

// ErrTickInProgress reports that a tick was skipped because the previous one
// is still running.
var ErrTickInProgress = errors.New("tick already in progress")

// eventWindow is how far back the streak computation looks.
const eventWindow = 30 * 24 * time.Hour

// ReminderScheduler runs the per-tick evaluation pass: for each habit with a
// reminder config it resolves candidate hours, asks the bandit for a target,
// and dispatches when the local hour matches and nothing was sent today.
type ReminderScheduler struct {
	habits     *repository.HabitRepository
	events     *repository.EventRepository
	sends      *repository.SendRepository
	streaks    *repository.StreakRepository
	users      *repository.UserRepository
	bandit     *BanditSelector
	notifier   notify.Notifier
	dispatcher notify.Dispatcher
	baseURL    string
	now        Clock

	tickMu sync.Mutex
}

func NewReminderScheduler(
	habits *repository.HabitRepository,
	events *repository.EventRepository,
	sends *repository.SendRepository,
	streaks *repository.StreakRepository,
	users *repository.UserRepository,
	bandit *BanditSelector,
	notifier notify.Notifier,
	dispatcher notify.Dispatcher,
	baseURL string,
	now Clock,
) *ReminderScheduler {
	if now == nil {
		now = time.Now
	}
	return &ReminderScheduler{
		habits:     habits,
		events:     events,
		sends:      sends,
		streaks:    streaks,
		users:      users,
		bandit:     bandit,
		notifier:   notifier,
		dispatcher: dispatcher,
		baseURL:    baseURL,
		now:        now,
	}
}

// Tick evaluates every habit once. A store failure listing habits aborts the
// whole tick; any failure on a single habit is logged and does not touch the
// others. Overlapping calls are rejected.
func (s *ReminderScheduler) Tick(ctx context.Context) error {
	if !s.tickMu.TryLock() {
		return ErrTickInProgress
	}
	defer s.tickMu.Unlock()

	pairs, err := s.habits.ListWithReminders(ctx)
	if err != nil {
		return fmt.Errorf("tick: %w", err)
	}

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.processHabit(ctx, pair.Habit, pair.Reminder); err != nil {
			log.Printf("tick habit %d: %v", pair.Habit.ID, err)
		}
	}
	return nil
}

func (s *ReminderScheduler) processHabit(ctx context.Context, habit model.Habit, cfg model.ReminderConfig) error {
	loc := habit.Location()
	local := s.now().In(loc)
	today := local.Format("2006-01-02")

	if err := s.sweepUnresolved(ctx, habit, today); err != nil {
		log.Printf("outcome sweep habit %d: %v", habit.ID, err)
	}

	if err := ValidateReminder(cfg); err != nil {
		// Bad config skips this habit only.
		return err
	}
	if !cfg.DayEnabled(local.Weekday()) {
		return nil
	}

	events, err := s.events.ListSince(ctx, habit.ID, s.now().Add(-eventWindow))
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	summary := SummarizeStreak(habit, events, s.now())
	if err := s.streaks.Upsert(ctx, &model.StreakState{
		HabitID:    habit.ID,
		StartDate:  summary.StartDate,
		LengthDays: summary.CurrentStreak,
		GraceUsed:  summary.GraceUsed,
		UpdatedAt:  s.now(),
	}); err != nil {
		log.Printf("refresh streak habit %d: %v", habit.ID, err)
	}
	if !summary.DueToday {
		return nil
	}

	candidates := CandidateHours(cfg)
	if len(candidates) == 0 {
		candidates = []int{cfg.StartHour}
	}

	target, err := s.bandit.ChooseHour(ctx, habit.ID, candidates)
	if err != nil {
		return fmt.Errorf("choose hour: %w", err)
	}

	defer s.refreshBestHour(ctx, habit.ID, cfg, candidates)

	if local.Hour() != target {
		return nil
	}
	existing, err := s.sends.FindForDate(ctx, habit.ID, today)
	if err != nil {
		return fmt.Errorf("check send marker: %w", err)
	}
	if existing != nil {
		return nil
	}

	user, err := s.users.FindByID(ctx, habit.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	send := &model.ReminderSend{
		HabitID: habit.ID,
		SentOn:  today,
		Hour:    target,
		Token:   uuid.NewString(),
	}
	title := habit.Title
	u := *user
	job := func(jobCtx context.Context) {
		if !s.notifier.SendReminder(jobCtx, u, title, s.checkinURL(habit.ID, send.Token)) {
			// Dispatch failed; no marker, so the next tick in the window retries.
			log.Printf("reminder dispatch failed for habit %d (user %d)", habit.ID, u.ID)
			return
		}
		if err := s.sends.Create(context.Background(), send); err != nil {
			log.Printf("mark sent habit %d: %v", habit.ID, err)
		}
	}
	if err := s.dispatcher.Submit(job); err != nil {
		return fmt.Errorf("submit dispatch: %w", err)
	}
	return nil
}

// sweepUnresolved settles sends from previous days: a check-in on the send's
// date is a success for that arm, a day that ended without one is a failure.
func (s *ReminderScheduler) sweepUnresolved(ctx context.Context, habit model.Habit, today string) error {
	unresolved, err := s.sends.ListUnresolvedBefore(ctx, habit.ID, today)
	if err != nil {
		return err
	}
	if len(unresolved) == 0 {
		return nil
	}

	loc := habit.Location()
	events, err := s.events.ListSince(ctx, habit.ID, s.now().Add(-eventWindow))
	if err != nil {
		return err
	}
	checked := make(map[string]bool)
	for _, ev := range events {
		if ev.Type == model.EventCheckin {
			checked[ev.Timestamp.In(loc).Format("2006-01-02")] = true
		}
	}

	for _, send := range unresolved {
		if err := s.bandit.RecordOutcome(ctx, habit.ID, send.Hour, checked[send.SentOn]); err != nil {
			return err
		}
		if err := s.sends.MarkResolved(ctx, send.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReminderScheduler) refreshBestHour(ctx context.Context, habitID uint, cfg model.ReminderConfig, candidates []int) {
	best, ok, err := s.bandit.BestHour(ctx, habitID, candidates)
	if err != nil {
		log.Printf("best hour habit %d: %v", habitID, err)
		return
	}
	if !ok || (cfg.BestHour != nil && *cfg.BestHour == best) {
		return
	}
	if err := s.habits.UpdateBestHour(ctx, habitID, best); err != nil {
		log.Printf("best hour habit %d: %v", habitID, err)
	}
}

func (s *ReminderScheduler) checkinURL(habitID uint, token string) string {
	if s.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/checkin/%d?t=%s", s.baseURL, habitID, token)
}
