package repository

import (
	"context"

	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
)

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

func (r *LessonRepository) Create(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

func (r *LessonRepository) Update(lesson *model.Lesson) error {
	return r.DB.Save(lesson).Error
}

func (r *LessonRepository) FindByID(ctx context.Context, id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.WithContext(ctx).First(&lesson, id).Error
	return &lesson, err
}

// List returns lessons ordered by level then by lesson order. Students only
// see published lessons; teachers and admins see everything.
func (r *LessonRepository) List(ctx context.Context, publishedOnly bool, level, page, limit int) ([]model.Lesson, int64, error) {
	var lessons []model.Lesson
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.Lesson{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	if level > 0 {
		query = query.Where("level = ?", level)
	}

	query.Count(&total)

	offset := (page - 1) * limit
	err := query.Offset(offset).Limit(limit).
		Order("level ASC, lesson_order ASC").
		Find(&lessons).Error
	return lessons, total, err
}

func (r *LessonRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Lesson{}, id).Error
}
