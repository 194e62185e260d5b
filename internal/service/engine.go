package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"habit-reminder/internal/notify"
)

// Engine owns the engine's periodic jobs and dispatch pool behind an
// explicit Start/Stop lifecycle, so the process entrypoint starts it exactly
// once and tests can drive it in isolation.
type Engine struct {
	scheduler *SchedulerService
	reminders *ReminderScheduler
	digests   *DigestScheduler
	pool      *notify.Pool

	tickInterval  time.Duration
	digestWeekday time.Weekday
	digestHour    int
	stopGrace     time.Duration
}

func NewEngine(
	scheduler *SchedulerService,
	reminders *ReminderScheduler,
	digests *DigestScheduler,
	pool *notify.Pool,
	tickInterval time.Duration,
	digestWeekday time.Weekday,
	digestHour int,
) *Engine {
	return &Engine{
		scheduler:     scheduler,
		reminders:     reminders,
		digests:       digests,
		pool:          pool,
		tickInterval:  tickInterval,
		digestWeekday: digestWeekday,
		digestHour:    digestHour,
		stopGrace:     10 * time.Second,
	}
}

// Start registers the tick and digest jobs and begins scheduling. Jobs stop
// firing when ctx is cancelled; call Stop to drain.
func (e *Engine) Start(ctx context.Context) error {
	e.pool.Start()

	_, err := e.scheduler.ScheduleInterval(e.tickInterval, func() {
		jobCtx, cancel := context.WithTimeout(ctx, e.tickInterval)
		defer cancel()
		err := e.reminders.Tick(jobCtx)
		switch {
		case err == nil:
		case errors.Is(err, ErrTickInProgress), errors.Is(err, context.Canceled):
		default:
			log.Printf("reminder tick: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule ticks: %w", err)
	}

	_, err = e.scheduler.ScheduleWeekly(e.digestWeekday, e.digestHour, func() {
		jobCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		if err := e.digests.RunAll(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("weekly digest: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule digest: %w", err)
	}

	e.scheduler.Start()
	log.Printf("[info] engine started: tick every %s, digest %s %02d:00",
		e.tickInterval, e.digestWeekday, e.digestHour)
	return nil
}

// Stop halts scheduling, waits for running jobs, then drains in-flight
// dispatches up to the grace period.
func (e *Engine) Stop() {
	e.scheduler.Stop()
	e.pool.Stop(e.stopGrace)
	log.Println("[info] engine stopped")
}
