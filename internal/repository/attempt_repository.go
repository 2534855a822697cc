package repository

import (
	"context"
	"fmt"
	"strings"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/scoring"
	"lingua_edu_backend/internal/util"

	"gorm.io/gorm"
)

// ProgressUpdate is the points credit applied alongside an attempt insert.
// Points and level move in the same transaction as the attempt row so a
// recorded attempt and its ledger effect cannot be observed separately.
type ProgressUpdate struct {
	UserID uint
	Points int
	Policy scoring.ProgressionPolicy
}

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

const txRetries = 3

// CreateScored inserts the attempt and applies the progress update in one
// transaction. The ledger update is a single UPDATE with relative arithmetic,
// so concurrent submissions for the same user serialize on the row lock and
// no credit is lost. MySQL evaluates SET clauses left to right, which lets
// the level read the just-credited total.
//
// Deadlocks between concurrent submissions are retried a bounded number of
// times; the attempt's primary key is reset before each retry so gorm issues
// a fresh insert. Exhausting the retries surfaces ErrAttemptConflict; any
// other failure propagates as is.
func (r *AttemptRepository) CreateScored(ctx context.Context, attempt *model.Attempt, progress *ProgressUpdate) error {
	var err error
	for i := 0; i < txRetries; i++ {
		attempt.ID = 0
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(attempt).Error; err != nil {
				return err
			}
			if progress == nil || progress.Points == 0 {
				return nil
			}
			return applyProgress(tx, progress)
		})
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", util.ErrAttemptConflict, err)
}

func applyProgress(tx *gorm.DB, p *ProgressUpdate) error {
	if p.Policy == scoring.PolicyIncrementalBump {
		return tx.Exec(
			"UPDATE users SET total_points = total_points + ?, level = level + ? WHERE id = ?",
			p.Points, p.Points/scoring.PointsPerBump, p.UserID,
		).Error
	}
	return tx.Exec(
		"UPDATE users SET total_points = total_points + ?, level = FLOOR(total_points / ?) + 1 WHERE id = ?",
		p.Points, scoring.PointsPerLevel, p.UserID,
	).Error
}

func isRetryable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Deadlock") || strings.Contains(msg, "Lock wait timeout")
}

func (r *AttemptRepository) FindByID(ctx context.Context, id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.DB.WithContext(ctx).First(&attempt, id).Error
	return &attempt, err
}

// ListByUser returns a user's attempts, newest completion first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID uint, exerciseID uint, page, limit int) ([]model.Attempt, int64, error) {
	var attempts []model.Attempt
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.Attempt{}).Where("user_id = ?", userID)
	if exerciseID != 0 {
		query = query.Where("exercise_id = ?", exerciseID)
	}

	query.Count(&total)

	offset := (page - 1) * limit
	err := query.Offset(offset).Limit(limit).
		Order("completed_at DESC").
		Find(&attempts).Error
	return attempts, total, err
}

func (r *AttemptRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CountPassedDistinct counts distinct exercises the user has passed at least
// once, for milestone badges and the stats panel.
func (r *AttemptRepository) CountPassedDistinct(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where("user_id = ? AND passed = ?", userID, true).
		Distinct("exercise_id").
		Count(&count).Error
	return count, err
}

// AccuracyByUser returns the user's lifetime answer accuracy as a 0-100
// percentage, aggregated over scored attempts. Pending attempts carry no
// counts and do not skew the ratio.
func (r *AttemptRepository) AccuracyByUser(ctx context.Context, userID uint) (float64, error) {
	var row struct {
		Correct int64
		Total   int64
	}
	err := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Select("COALESCE(SUM(correct_count),0) AS correct, COALESCE(SUM(total_questions),0) AS total").
		Where("user_id = ? AND status = ?", userID, model.AttemptScored).
		Scan(&row).Error
	if err != nil {
		return 0, err
	}
	if row.Total == 0 {
		return 0, nil
	}
	return 100 * float64(row.Correct) / float64(row.Total), nil
}
