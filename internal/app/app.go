package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/controller"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/pkg/database"
	"lingua_edu_backend/pkg/logger"
	"lingua_edu_backend/pkg/monitoring"
	"lingua_edu_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine

	tracerProvider *sdktrace.TracerProvider
	server         *http.Server
	cancelWorkers  context.CancelFunc

	// repositories
	UserRepo     *repository.UserRepository
	ExerciseRepo *repository.ExerciseRepository
	AttemptRepo  *repository.AttemptRepository
	BadgeRepo    *repository.BadgeRepository
	CheckinRepo  *repository.CheckinRepository
	LessonRepo   *repository.LessonRepository

	// services
	AuthService     *service.AuthService
	UserService     *service.UserService
	ExerciseService *service.ExerciseService
	AttemptService  *service.AttemptService
	SpeakingService *service.SpeakingService
	StatsService    *service.StatsService
	LessonService   *service.LessonService
	StorageService  *service.StorageService

	// controllers
	AuthController     *controller.AuthController
	UserController     *controller.UserController
	ExerciseController *controller.ExerciseController
	AttemptController  *controller.AttemptController
	StatsController    *controller.StatsController
	LessonController   *controller.LessonController
	HealthController   *controller.HealthController
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	app.DB = db

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, leaderboard caching disabled", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("lingua-edu-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Warn("tracing disabled", zap.Error(err))
		} else {
			app.tracerProvider = tp
		}
	}

	monitoring.Init()

	app.initRepositories()
	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initControllers()
	app.setupRouter()

	return app, nil
}

func (a *App) initRepositories() {
	a.UserRepo = repository.NewUserRepository(a.DB)
	a.ExerciseRepo = repository.NewExerciseRepository(a.DB)
	a.AttemptRepo = repository.NewAttemptRepository(a.DB)
	a.BadgeRepo = repository.NewBadgeRepository(a.DB)
	a.CheckinRepo = repository.NewCheckinRepository(a.DB)
	a.LessonRepo = repository.NewLessonRepository(a.DB)
}

func (a *App) initServices() error {
	storage, err := service.NewStorageService(a.Config)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	a.StorageService = storage

	a.AuthService = service.NewAuthService(a.UserRepo, a.Config)
	a.UserService = service.NewUserService(a.UserRepo)
	a.ExerciseService = service.NewExerciseService(a.ExerciseRepo)
	a.SpeakingService = service.NewSpeakingService(a.Config)
	a.AttemptService = service.NewAttemptService(
		a.AttemptRepo,
		a.UserRepo,
		a.ExerciseRepo,
		a.BadgeRepo,
		a.CheckinRepo,
		a.SpeakingService,
	)
	a.StatsService = service.NewStatsService(a.UserRepo, a.AttemptRepo, a.BadgeRepo, a.ExerciseRepo, a.Redis)
	a.LessonService = service.NewLessonService(a.LessonRepo, a.StorageService)

	return nil
}

func (a *App) initControllers() {
	a.AuthController = controller.NewAuthController(a.AuthService)
	a.UserController = controller.NewUserController(a.UserService)
	a.ExerciseController = controller.NewExerciseController(a.ExerciseService)
	a.AttemptController = controller.NewAttemptController(a.AttemptService)
	a.StatsController = controller.NewStatsController(a.StatsService)
	a.LessonController = controller.NewLessonController(a.LessonService)
	a.HealthController = controller.NewHealthController(a.DB)
}

// Run starts the background workers and the HTTP server, blocking until the
// server stops.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelWorkers = cancel
	a.ExerciseService.StartPublishScheduler(ctx)

	a.server = &http.Server{
		Addr:         ":" + a.Config.Server.Port,
		Handler:      a.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Log.Info("server listening", zap.String("port", a.Config.Server.Port))
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the workers.
func (a *App) Shutdown(ctx context.Context) error {
	if a.cancelWorkers != nil {
		a.cancelWorkers()
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Warn("shutting down tracer failed", zap.Error(err))
		}
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Warn("closing redis failed", zap.Error(err))
		}
	}

	if a.server != nil {
		return a.server.Shutdown(ctx)
	}
	return nil
}
