package notify

import (
	"context"
	"fmt"
	"html"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-reminder/internal/model"
)

// Telegram sends reminders and digests through the Telegram Bot API.
type Telegram struct {
	api *tgbotapi.BotAPI
}

func NewTelegram(api *tgbotapi.BotAPI) *Telegram {
	return &Telegram{api: api}
}

func (t *Telegram) SendReminder(ctx context.Context, user model.User, habitTitle, checkinURL string) bool {
	text := fmt.Sprintf("⏰ <b>%s</b>\nTime to check in — keep the streak going!",
		html.EscapeString(habitTitle))
	msg := tgbotapi.NewMessage(user.TelegramID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if checkinURL != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("✅ Check in", checkinURL),
			),
		)
	}
	return t.send(ctx, user.ID, msg)
}

func (t *Telegram) SendWeeklyDigest(ctx context.Context, user model.User, insights Insights) bool {
	text := fmt.Sprintf(
		"📊 <b>Your week</b>\nHi %s!\n\n✅ Completion rate: %.0f%%\n🔥 Streak health: %d/100",
		html.EscapeString(user.DisplayName()),
		insights.CompletionRate*100,
		insights.StreakHealthScore,
	)
	msg := tgbotapi.NewMessage(user.TelegramID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return t.send(ctx, user.ID, msg)
}

func (t *Telegram) send(ctx context.Context, userID uint, msg tgbotapi.MessageConfig) bool {
	if err := ctx.Err(); err != nil {
		log.Printf("telegram send skipped for user %d: %v", userID, err)
		return false
	}
	if _, err := t.api.Send(msg); err != nil {
		log.Printf("telegram send failed for user %d: %v", userID, err)
		return false
	}
	return true
}
