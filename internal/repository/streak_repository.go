package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habit-reminder/internal/model"
)

// StreakRepository stores the derived streak snapshot per habit.
type StreakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// Upsert replaces the habit's streak snapshot in one statement.
func (r *StreakRepository) Upsert(ctx context.Context, state *model.StreakState) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"start_date", "length_days", "grace_used", "updated_at"}),
	}).Create(state).Error
	if err != nil {
		return fmt.Errorf("upsert streak: %w", err)
	}
	return nil
}

func (r *StreakRepository) Find(ctx context.Context, habitID uint) (*model.StreakState, error) {
	var state model.StreakState
	if err := r.db.WithContext(ctx).Where("habit_id = ?", habitID).First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}
