package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"habit-reminder/internal/model"
)

// EventRepository appends and reads the habit event log. Events are never
// updated or deleted.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(ctx context.Context, event *model.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListSince returns a habit's events from the cutoff on, most recent first.
func (r *EventRepository) ListSince(ctx context.Context, habitID uint, since time.Time) ([]model.Event, error) {
	var events []model.Event
	if err := r.db.WithContext(ctx).
		Where("habit_id = ? AND timestamp >= ?", habitID, since).
		Order("timestamp DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// ListSinceForUser returns events across all of a user's habits from the
// cutoff on, most recent first. Used by the digest insights computation.
func (r *EventRepository) ListSinceForUser(ctx context.Context, userID uint, since time.Time) ([]model.Event, error) {
	var events []model.Event
	if err := r.db.WithContext(ctx).
		Where("habit_id IN (?) AND timestamp >= ?",
			r.db.Model(&model.Habit{}).Select("id").Where("user_id = ?", userID),
			since).
		Order("timestamp DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
