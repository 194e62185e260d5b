package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"habit-reminder/internal/model"
)

// SendRepository persists reminder-send markers, one per habit per local day.
type SendRepository struct {
	db *gorm.DB
}

func NewSendRepository(db *gorm.DB) *SendRepository {
	return &SendRepository{db: db}
}

// Create inserts the send marker. The unique index on (habit, date) rejects a
// second send for the same day.
func (r *SendRepository) Create(ctx context.Context, send *model.ReminderSend) error {
	if err := r.db.WithContext(ctx).Create(send).Error; err != nil {
		return fmt.Errorf("create send marker: %w", err)
	}
	return nil
}

// FindForDate returns the send marker for a habit on a local date, or nil.
func (r *SendRepository) FindForDate(ctx context.Context, habitID uint, date string) (*model.ReminderSend, error) {
	var send model.ReminderSend
	err := r.db.WithContext(ctx).
		Where("habit_id = ? AND sent_on = ?", habitID, date).
		First(&send).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &send, nil
}

// ListUnresolvedBefore returns sends from days before the cutoff date whose
// outcome has not been recorded yet.
func (r *SendRepository) ListUnresolvedBefore(ctx context.Context, habitID uint, date string) ([]model.ReminderSend, error) {
	var sends []model.ReminderSend
	if err := r.db.WithContext(ctx).
		Where("habit_id = ? AND sent_on < ? AND outcome_recorded = ?", habitID, date, false).
		Find(&sends).Error; err != nil {
		return nil, err
	}
	return sends, nil
}

// MarkResolved flips the outcome flag once a reward has been recorded.
func (r *SendRepository) MarkResolved(ctx context.Context, sendID uint) error {
	if err := r.db.WithContext(ctx).Model(&model.ReminderSend{}).
		Where("id = ?", sendID).
		Update("outcome_recorded", true).Error; err != nil {
		return fmt.Errorf("resolve send: %w", err)
	}
	return nil
}
