package notify

import (
	"context"

	"habit-reminder/internal/model"
)

// Insights is the aggregate payload of a weekly digest.
type Insights struct {
	CompletionRate    float64
	StreakHealthScore int
}

// Notifier delivers messages to a user over some channel. Implementations
// report success or failure as a bool and never propagate errors across the
// boundary; failures are logged where they happen.
type Notifier interface {
	SendReminder(ctx context.Context, user model.User, habitTitle, checkinURL string) bool
	SendWeeklyDigest(ctx context.Context, user model.User, insights Insights) bool
}
