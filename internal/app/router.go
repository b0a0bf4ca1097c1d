package app

import (
	"solvelab_backend/internal/middleware"
	"solvelab_backend/internal/model"
	"solvelab_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
		public.GET("/leaderboard", c.achievement.GetLeaderboard)
	}

	// 2. 解题提交：可选认证，游客直接提交也允许
	problems := router.Group("/api/problems")
	problems.Use(middleware.TryAuthMiddleware(), middleware.ActivityMiddleware(repos.user))
	{
		problems.POST("/submit", c.problem.Submit)
		problems.GET("/:id", c.problem.GetStatus)
	}

	// 3. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/auth/profile", c.auth.GetProfile)

		authGroup.GET("/problems", c.problem.History)
		authGroup.POST("/problems/voice", c.problem.UploadVoice)

		authGroup.GET("/todos", c.todo.List)
		authGroup.POST("/todos", c.todo.Create)
		authGroup.PUT("/todos/:id", c.todo.Update)
		authGroup.PATCH("/todos/:id/toggle", c.todo.Toggle)
		authGroup.DELETE("/todos/:id", c.todo.Delete)

		authGroup.GET("/achievements", c.achievement.GetAchievements)
		authGroup.GET("/progress", c.progress.GetProgress)
		authGroup.GET("/dashboard", c.dashboard.GetDashboard)
	}

	// 4. 管理员相关接口
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(model.Admin))
	{
		adminGroup.GET("/audit-logs", c.audit.List)
	}
}
