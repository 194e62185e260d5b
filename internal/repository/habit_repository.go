package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"habit-reminder/internal/model"
)

// HabitRepository handles reads for habits and their reminder configs.
// Habit creation/editing belongs to the web API; the engine only consumes.
type HabitRepository struct {
	db *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func (r *HabitRepository) Create(ctx context.Context, habit *model.Habit) error {
	if err := r.db.WithContext(ctx).Create(habit).Error; err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

func (r *HabitRepository) FindByID(ctx context.Context, habitID uint) (*model.Habit, error) {
	var habit model.Habit
	if err := r.db.WithContext(ctx).First(&habit, habitID).Error; err != nil {
		return nil, err
	}
	return &habit, nil
}

func (r *HabitRepository) ListByUser(ctx context.Context, userID uint) ([]model.Habit, error) {
	var habits []model.Habit
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, err
	}
	return habits, nil
}

// HabitWithReminder pairs a habit with its reminder config for one tick pass.
type HabitWithReminder struct {
	Habit    model.Habit
	Reminder model.ReminderConfig
}

// ListWithReminders returns every habit that has a reminder config.
func (r *HabitRepository) ListWithReminders(ctx context.Context) ([]HabitWithReminder, error) {
	var configs []model.ReminderConfig
	if err := r.db.WithContext(ctx).Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("list reminder configs: %w", err)
	}
	if len(configs) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(configs))
	for _, c := range configs {
		ids = append(ids, c.HabitID)
	}
	var habits []model.Habit
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	byID := make(map[uint]model.Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
	}

	var out []HabitWithReminder
	for _, c := range configs {
		habit, ok := byID[c.HabitID]
		if !ok {
			continue // orphaned config, habit deleted out from under it
		}
		out = append(out, HabitWithReminder{Habit: habit, Reminder: c})
	}
	return out, nil
}

func (r *HabitRepository) SaveReminder(ctx context.Context, cfg *model.ReminderConfig) error {
	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return fmt.Errorf("save reminder config: %w", err)
	}
	return nil
}

// UpdateBestHour refreshes the cached best-hour hint for a habit's reminder.
func (r *HabitRepository) UpdateBestHour(ctx context.Context, habitID uint, hour int) error {
	if err := r.db.WithContext(ctx).Model(&model.ReminderConfig{}).
		Where("habit_id = ?", habitID).
		Update("best_hour", hour).Error; err != nil {
		return fmt.Errorf("update best hour: %w", err)
	}
	return nil
}
