package repository

import (
	"context"

	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
)

type ExerciseRepository struct {
	DB *gorm.DB
}

func NewExerciseRepository(db *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{DB: db}
}

func (r *ExerciseRepository) Create(exercise *model.Exercise) error {
	return r.DB.Create(exercise).Error
}

func (r *ExerciseRepository) Update(exercise *model.Exercise) error {
	return r.DB.Save(exercise).Error
}

func (r *ExerciseRepository) FindByID(ctx context.Context, id uint) (*model.Exercise, error) {
	var e model.Exercise
	if err := r.DB.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// FindWithQuestions loads an exercise and its questions in submission order.
func (r *ExerciseRepository) FindWithQuestions(ctx context.Context, id uint) (*model.Exercise, []model.Question, error) {
	var e model.Exercise
	if err := r.DB.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, nil, err
	}
	var questions []model.Question
	err := r.DB.WithContext(ctx).
		Where("exercise_id = ?", id).
		Order("question_order ASC").
		Find(&questions).Error
	if err != nil {
		return nil, nil, err
	}
	return &e, questions, nil
}

func (r *ExerciseRepository) List(exerciseType string, activeOnly bool, page, limit int) ([]model.Exercise, int64, error) {
	var exercises []model.Exercise
	var total int64

	query := r.DB.Model(&model.Exercise{})
	if exerciseType != "" {
		query = query.Where("type = ?", exerciseType)
	}
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	query.Count(&total)

	offset := (page - 1) * limit
	err := query.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&exercises).Error
	return exercises, total, err
}

func (r *ExerciseRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Exercise{}).
		Where("active = ?", true).
		Count(&count).Error
	return count, err
}

func (r *ExerciseRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exercise_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Exercise{}, id).Error
	})
}

func (r *ExerciseRepository) ReplaceQuestions(exerciseID uint, questions []model.Question) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exercise_id = ?", exerciseID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		for i := range questions {
			questions[i].ExerciseID = exerciseID
			questions[i].Order = i + 1
		}
		return tx.Create(&questions).Error
	})
}

// FindDuePublishes returns inactive exercises whose scheduled publish time
// has passed.
func (r *ExerciseRepository) FindDuePublishes() ([]model.Exercise, error) {
	var exercises []model.Exercise
	err := r.DB.
		Where("scheduled_publish_at IS NOT NULL AND scheduled_publish_at <= NOW() AND active = ?", false).
		Find(&exercises).Error
	return exercises, err
}
