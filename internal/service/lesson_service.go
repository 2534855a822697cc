package service

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"os"
	"path/filepath"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LessonService struct {
	LessonRepo *repository.LessonRepository
	Storage    *StorageService
}

func NewLessonService(lessonRepo *repository.LessonRepository, storage *StorageService) *LessonService {
	return &LessonService{LessonRepo: lessonRepo, Storage: storage}
}

type LessonInput struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	Level       int    `json:"level" binding:"min=1"`
	Order       int    `json:"order"`
	Published   bool   `json:"published"`
}

func (s *LessonService) Create(creatorID uint, input *LessonInput) (*model.Lesson, error) {
	lesson := &model.Lesson{
		Title:       input.Title,
		Description: input.Description,
		Level:       input.Level,
		Order:       input.Order,
		Published:   input.Published,
		CreatorID:   creatorID,
	}
	if lesson.Level == 0 {
		lesson.Level = 1
	}
	if err := s.LessonRepo.Create(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) Update(ctx context.Context, id uint, input *LessonInput) (*model.Lesson, error) {
	lesson, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}

	lesson.Title = input.Title
	lesson.Description = input.Description
	lesson.Level = input.Level
	lesson.Order = input.Order
	lesson.Published = input.Published

	if err := s.LessonRepo.Update(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) Get(ctx context.Context, id uint, staff bool) (*model.Lesson, error) {
	lesson, err := s.LessonRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}
	if !lesson.Published && !staff {
		return nil, util.ErrLessonNotFound
	}
	return lesson, nil
}

func (s *LessonService) List(ctx context.Context, staff bool, level, page, limit int) ([]model.Lesson, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.LessonRepo.List(ctx, !staff, level, page, limit)
}

func (s *LessonService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id, true); err != nil {
		return err
	}
	return s.LessonRepo.Delete(id)
}

// AttachMedia stores an uploaded clip for a lesson and records its probed
// duration. The file is spooled to a temp path first so ffprobe can read it.
func (s *LessonService) AttachMedia(ctx context.Context, id uint, file *multipart.FileHeader, kind string) (*model.Lesson, error) {
	lesson, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := spoolUpload(file)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	info, err := util.ProbeMedia(tmpPath)
	if err != nil {
		logger.Log.Warn("probing lesson media failed", zap.Uint("lessonId", id), zap.Error(err))
		return nil, util.ErrUnsupportedMediaFormat
	}

	url, err := s.Storage.UploadMedia(ctx, file, kind)
	if err != nil {
		return nil, err
	}

	if kind == "audio" {
		lesson.AudioURL = url
	} else {
		lesson.VideoURL = url
	}
	lesson.DurationSeconds = int(math.Round(info.Duration))

	if err := s.LessonRepo.Update(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func spoolUpload(file *multipart.FileHeader) (string, func(), error) {
	src, err := file.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(file.Filename))
	if err != nil {
		return "", nil, err
	}

	if _, err := tmp.ReadFrom(src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, err
	}
	tmp.Close()

	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}
