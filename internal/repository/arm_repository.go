package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habit-reminder/internal/model"
)

// ArmRepository persists bandit arm counters. Increments are atomic at the
// store layer so concurrent ticks and inbound check-ins cannot lose updates.
type ArmRepository struct {
	db *gorm.DB
}

func NewArmRepository(db *gorm.DB) *ArmRepository {
	return &ArmRepository{db: db}
}

// IncrementPull adds one pull to the (habit, hour) arm, creating it lazily.
func (r *ArmRepository) IncrementPull(ctx context.Context, habitID uint, hour int) error {
	arm := model.ArmStat{HabitID: habitID, Hour: hour, Pulls: 1, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "habit_id"}, {Name: "hour"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"pulls":      gorm.Expr("pulls + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&arm).Error
	if err != nil {
		return fmt.Errorf("increment pull: %w", err)
	}
	return nil
}

// IncrementSuccess adds one success to the (habit, hour) arm, creating it
// lazily for the odd case of an outcome arriving before any recorded pull.
func (r *ArmRepository) IncrementSuccess(ctx context.Context, habitID uint, hour int) error {
	arm := model.ArmStat{HabitID: habitID, Hour: hour, Successes: 1, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "habit_id"}, {Name: "hour"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"successes":  gorm.Expr("successes + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&arm).Error
	if err != nil {
		return fmt.Errorf("increment success: %w", err)
	}
	return nil
}

// ListByHabit returns every known arm for a habit, lowest hour first.
func (r *ArmRepository) ListByHabit(ctx context.Context, habitID uint) ([]model.ArmStat, error) {
	var arms []model.ArmStat
	if err := r.db.WithContext(ctx).Where("habit_id = ?", habitID).
		Order("hour ASC").Find(&arms).Error; err != nil {
		return nil, err
	}
	return arms, nil
}
