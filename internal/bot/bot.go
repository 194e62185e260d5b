package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-reminder/internal/model"
	"habit-reminder/internal/repository"
	"habit-reminder/internal/service"
)

const cbCheckinPrefix = "checkin:"

// Bot is the inbound Telegram surface of the reminder engine: it records
// check-ins and shows streaks. Habit management lives in the web API, not
// here.
type Bot struct {
	api      *tgbotapi.BotAPI
	users    *repository.UserRepository
	habits   *repository.HabitRepository
	streaks  *repository.StreakRepository
	checkins *service.CheckinService
}

func New(api *tgbotapi.BotAPI, users *repository.UserRepository, habits *repository.HabitRepository, streaks *repository.StreakRepository, checkins *service.CheckinService) *Bot {
	log.Printf("[info] bot authorized on account %s", api.Self.UserName)
	return &Bot{
		api:      api,
		users:    users,
		habits:   habits,
		streaks:  streaks,
		checkins: checkins,
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || !msg.IsCommand() {
		return nil
	}

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText())
	case "habits", "streak":
		return b.handleHabits(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Hi %s! I'll remind you about your habits at the times that work best for you.\nUse /done to check in and /habits to see your streaks.",
		user.DisplayName())
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHabits(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	habits, err := b.habits.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list habits: %w", err)
	}
	if len(habits) == 0 {
		return b.sendText(msg.Chat.ID, "No habits yet. Create one in the app first.")
	}

	var sb strings.Builder
	sb.WriteString("🔥 <b>Your habits</b>\n")
	for _, habit := range habits {
		streak := 0
		if state, err := b.streaks.Find(ctx, habit.ID); err == nil {
			streak = state.LengthDays
		}
		sb.WriteString(fmt.Sprintf("• %s — %d day streak\n", html.EscapeString(habit.Title), streak))
	}
	return b.sendHTML(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

// handleDone lists the user's habits as check-in buttons.
func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	habits, err := b.habits.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list habits: %w", err)
	}
	if len(habits) == 0 {
		return b.sendText(msg.Chat.ID, "No habits yet. Create one in the app first.")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, habit := range habits {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				"✅ "+habit.Title,
				cbCheckinPrefix+strconv.FormatUint(uint64(habit.ID), 10),
			),
		))
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, "Which habit did you finish?")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err = b.api.Send(reply)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil || !strings.HasPrefix(cb.Data, cbCheckinPrefix) {
		return nil
	}
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			log.Printf("answer callback: %v", err)
		}
	}()

	id, err := strconv.ParseUint(strings.TrimPrefix(cb.Data, cbCheckinPrefix), 10, 64)
	if err != nil {
		return fmt.Errorf("parse callback %q: %w", cb.Data, err)
	}
	habitID := uint(id)

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}
	habit, err := b.habits.FindByID(ctx, habitID)
	if err != nil {
		return fmt.Errorf("find habit %d: %w", habitID, err)
	}
	if habit.UserID != user.ID {
		return fmt.Errorf("habit %d does not belong to user %d", habitID, user.ID)
	}

	summary, err := b.checkins.RecordCheckin(ctx, habitID, "telegram")
	if err != nil {
		return err
	}

	chatID := cb.From.ID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}
	return b.sendHTML(chatID, fmt.Sprintf("✅ <b>%s</b> checked in — %d day streak!",
		html.EscapeString(habit.Title), summary.CurrentStreak))
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.users.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) sendHTML(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func helpText() string {
	return strings.Join([]string{
		"/done — check in a habit",
		"/habits — your habits and streaks",
		"/help — this message",
	}, "\n")
}
