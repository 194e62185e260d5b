package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-reminder/internal/bot"
	"habit-reminder/internal/config"
	"habit-reminder/internal/notify"
	"habit-reminder/internal/repository"
	"habit-reminder/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	habitRepo := repository.NewHabitRepository(db)
	eventRepo := repository.NewEventRepository(db)
	streakRepo := repository.NewStreakRepository(db)
	armRepo := repository.NewArmRepository(db)
	sendRepo := repository.NewSendRepository(db)
	digestRepo := repository.NewDigestRepository(db)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("bot api: %v", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	bandit := service.NewBanditSelector(armRepo, cfg.Epsilon, rng)
	notifier := notify.NewTelegram(api)
	pool := notify.NewPool(cfg.DispatchWorkers, cfg.DispatchTimeout())

	reminders := service.NewReminderScheduler(
		habitRepo, eventRepo, sendRepo, streakRepo, userRepo,
		bandit, notifier, pool, cfg.CheckinBaseURL, time.Now,
	)
	insights := service.NewStoreInsights(habitRepo, eventRepo, streakRepo)
	digests := service.NewDigestScheduler(userRepo, digestRepo, insights, notifier, time.Now)
	checkins := service.NewCheckinService(habitRepo, eventRepo, streakRepo, sendRepo, bandit, time.Now)

	scheduler := service.NewSchedulerService(time.Local)
	engine := service.NewEngine(
		scheduler, reminders, digests, pool,
		cfg.TickInterval(), cfg.DigestWeekday(), cfg.DigestHour,
	)
	if err := engine.Start(ctx); err != nil {
		log.Fatalf("engine: %v", err)
	}
	defer engine.Stop()

	telegramBot := bot.New(api, userRepo, habitRepo, streakRepo, checkins)

	log.Println("Habit reminder engine started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
