package app

import (
	"time"

	"lingua_edu_backend/internal/middleware"
	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/monitoring"
	"lingua_edu_backend/pkg/security"
	"lingua_edu_backend/pkg/tracing"

	_ "lingua_edu_backend/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) setupRouter() {
	gin.SetMode(a.Config.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(security.CORS(a.Config.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(monitoring.MetricsMiddleware())
	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}
	if a.Config.RateLimit.MaxRequests > 0 {
		window := time.Duration(a.Config.RateLimit.WindowMinutes) * time.Minute
		router.Use(security.RateLimiter(a.Config.RateLimit.MaxRequests, window))
	}

	router.GET("/health", a.HealthController.Check)
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if a.Config.Storage.Type == util.StorageLocal {
		router.Static("/uploads", a.Config.Storage.LocalPath)
	}

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", a.AuthController.Register)
			auth.POST("/login", a.AuthController.Login)
		}

		// public reads; staff tokens widen what List/Get return
		public := api.Group("")
		public.Use(middleware.TryAuthMiddleware(a.Config))
		{
			public.GET("/exercises", a.ExerciseController.List)
			public.GET("/exercises/:id", a.ExerciseController.Get)
			public.GET("/lessons", a.LessonController.List)
			public.GET("/lessons/:id", a.LessonController.Get)
			public.GET("/leaderboard", a.StatsController.Leaderboard)
		}

		authed := api.Group("")
		authed.Use(middleware.AuthMiddleware(a.Config))
		{
			authed.POST("/exercises/:id/attempts", a.AttemptController.Submit)
			authed.GET("/attempts", a.AttemptController.History)
			authed.GET("/attempts/:id", a.AttemptController.Get)
			authed.GET("/stats", a.StatsController.MyStats)

			authed.GET("/users/me", a.UserController.Me)
			authed.PUT("/users/me", a.UserController.UpdateMe)
			authed.PUT("/users/me/password", a.UserController.ChangePassword)
		}

		staff := api.Group("/admin")
		staff.Use(middleware.AuthMiddleware(a.Config))
		staff.Use(middleware.RoleMiddleware(model.Teacher, model.Admin))
		{
			staff.POST("/exercises", a.ExerciseController.Create)
			staff.PUT("/exercises/:id", a.ExerciseController.Update)
			staff.PATCH("/exercises/:id/active", a.ExerciseController.SetActive)
			staff.DELETE("/exercises/:id", a.ExerciseController.Delete)

			staff.POST("/lessons", a.LessonController.Create)
			staff.PUT("/lessons/:id", a.LessonController.Update)
			staff.POST("/lessons/:id/media", a.LessonController.UploadMedia)
			staff.DELETE("/lessons/:id", a.LessonController.Delete)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(a.Config))
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.GET("/users", a.UserController.List)
			admin.PATCH("/users/:id/disabled", a.UserController.SetDisabled)
		}
	}

	a.Router = router
}
