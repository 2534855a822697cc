package service

import (
	"context"
	"errors"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExerciseService struct {
	ExerciseRepo *repository.ExerciseRepository
}

func NewExerciseService(exerciseRepo *repository.ExerciseRepository) *ExerciseService {
	return &ExerciseService{ExerciseRepo: exerciseRepo}
}

type QuestionInput struct {
	Prompt           string `json:"prompt" binding:"required"`
	QuestionType     string `json:"questionType"`
	Options          string `json:"options"`
	Answer           string `json:"answer" binding:"required"`
	TimeLimitSeconds int    `json:"timeLimitSeconds"`
}

type ExerciseInput struct {
	Title              string             `json:"title" binding:"required,max=200"`
	Description        string             `json:"description"`
	Type               model.ExerciseType `json:"type" binding:"required,oneof=challenge listening speaking"`
	PassingScore       int                `json:"passingScore" binding:"min=0,max=100"`
	PointsReward       int                `json:"pointsReward" binding:"min=0"`
	RequiredLevel      int                `json:"requiredLevel" binding:"min=1"`
	AudioURL           string             `json:"audioUrl"`
	ReferenceAnswer    string             `json:"referenceAnswer"`
	TimeLimitSeconds   int                `json:"timeLimitSeconds"`
	ScheduledPublishAt *time.Time         `json:"scheduledPublishAt"`
	Questions          []QuestionInput    `json:"questions"`
}

func (s *ExerciseService) Create(creatorID uint, input *ExerciseInput) (*model.Exercise, error) {
	exercise := &model.Exercise{
		Title:              input.Title,
		Description:        input.Description,
		Type:               input.Type,
		PassingScore:       input.PassingScore,
		PointsReward:       input.PointsReward,
		RequiredLevel:      input.RequiredLevel,
		AudioURL:           input.AudioURL,
		ReferenceAnswer:    input.ReferenceAnswer,
		TimeLimitSeconds:   input.TimeLimitSeconds,
		ScheduledPublishAt: input.ScheduledPublishAt,
		CreatorID:          creatorID,
	}
	if exercise.PassingScore == 0 {
		exercise.PassingScore = 60
	}
	if exercise.RequiredLevel == 0 {
		exercise.RequiredLevel = 1
	}

	if err := s.ExerciseRepo.Create(exercise); err != nil {
		return nil, err
	}
	if len(input.Questions) > 0 {
		if err := s.ExerciseRepo.ReplaceQuestions(exercise.ID, questionsFromInput(input.Questions)); err != nil {
			return nil, err
		}
	}
	return exercise, nil
}

func (s *ExerciseService) Update(ctx context.Context, id uint, input *ExerciseInput) (*model.Exercise, error) {
	exercise, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	exercise.Title = input.Title
	exercise.Description = input.Description
	exercise.Type = input.Type
	exercise.PassingScore = input.PassingScore
	exercise.PointsReward = input.PointsReward
	exercise.RequiredLevel = input.RequiredLevel
	exercise.AudioURL = input.AudioURL
	exercise.ReferenceAnswer = input.ReferenceAnswer
	exercise.TimeLimitSeconds = input.TimeLimitSeconds
	exercise.ScheduledPublishAt = input.ScheduledPublishAt

	if err := s.ExerciseRepo.Update(exercise); err != nil {
		return nil, err
	}
	if input.Questions != nil {
		if err := s.ExerciseRepo.ReplaceQuestions(exercise.ID, questionsFromInput(input.Questions)); err != nil {
			return nil, err
		}
	}
	return exercise, nil
}

func questionsFromInput(inputs []QuestionInput) []model.Question {
	questions := make([]model.Question, len(inputs))
	for i, q := range inputs {
		questionType := q.QuestionType
		if questionType == "" {
			questionType = "text"
		}
		questions[i] = model.Question{
			Prompt:           q.Prompt,
			QuestionType:     questionType,
			Options:          q.Options,
			Answer:           q.Answer,
			TimeLimitSeconds: q.TimeLimitSeconds,
		}
	}
	return questions
}

func (s *ExerciseService) get(ctx context.Context, id uint) (*model.Exercise, error) {
	exercise, err := s.ExerciseRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// Get returns an exercise with its questions. Students only see active
// exercises and never the answer keys (Question.Answer is not serialized).
func (s *ExerciseService) Get(ctx context.Context, id uint, staff bool) (*model.Exercise, error) {
	exercise, questions, err := s.ExerciseRepo.FindWithQuestions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExerciseNotFound
		}
		return nil, err
	}
	if !exercise.Active && !staff {
		return nil, util.ErrExerciseNotFound
	}
	exercise.Questions = questions
	return exercise, nil
}

func (s *ExerciseService) List(exerciseType string, staff bool, page, limit int) ([]model.Exercise, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.ExerciseRepo.List(exerciseType, !staff, page, limit)
}

// SetActive publishes or retires an exercise immediately.
func (s *ExerciseService) SetActive(ctx context.Context, id uint, active bool) (*model.Exercise, error) {
	exercise, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	exercise.Active = active
	if active && exercise.PublishedAt == nil {
		now := time.Now()
		exercise.PublishedAt = &now
	}
	if err := s.ExerciseRepo.Update(exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

func (s *ExerciseService) Delete(ctx context.Context, id uint) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	return s.ExerciseRepo.Delete(id)
}

// StartPublishScheduler activates exercises whose scheduled publish time has
// arrived, polling once a minute until the context is cancelled.
func (s *ExerciseService) StartPublishScheduler(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.processScheduledPublishes()
			}
		}
	}()
}

func (s *ExerciseService) processScheduledPublishes() {
	due, err := s.ExerciseRepo.FindDuePublishes()
	if err != nil {
		logger.Log.Error("querying scheduled publishes failed", zap.Error(err))
		return
	}

	for i := range due {
		exercise := &due[i]
		exercise.Active = true
		now := time.Now()
		exercise.PublishedAt = &now
		if err := s.ExerciseRepo.Update(exercise); err != nil {
			logger.Log.Error("publishing scheduled exercise failed",
				zap.Uint("exerciseId", exercise.ID),
				zap.Error(err))
			continue
		}
		logger.Log.Info("scheduled exercise published",
			zap.Uint("exerciseId", exercise.ID),
			zap.String("title", exercise.Title))
	}
}
