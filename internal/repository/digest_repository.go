package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"habit-reminder/internal/model"
)

// ErrDigestExists reports that a digest was already recorded for the period.
var ErrDigestExists = errors.New("digest already sent for period")

// DigestRepository records weekly digest runs for idempotency and audit.
type DigestRepository struct {
	db *gorm.DB
}

func NewDigestRepository(db *gorm.DB) *DigestRepository {
	return &DigestRepository{db: db}
}

// Exists reports whether a digest run is recorded for the user and period.
func (r *DigestRepository) Exists(ctx context.Context, userID uint, period string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.DigestRun{}).
		Where("user_id = ? AND period = ?", userID, period).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Record inserts the run row. A unique-constraint violation from a racing
// insert maps to ErrDigestExists so callers can treat it as already-sent.
func (r *DigestRepository) Record(ctx context.Context, run *model.DigestRun) error {
	err := r.db.WithContext(ctx).Create(run).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDigestExists
	}
	return fmt.Errorf("record digest run: %w", err)
}
