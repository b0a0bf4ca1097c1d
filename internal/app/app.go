package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solvelab_backend/internal/config"
	"solvelab_backend/internal/controller"
	"solvelab_backend/internal/repository"
	"solvelab_backend/internal/service"
	"solvelab_backend/pkg/database"
	"solvelab_backend/pkg/logger"
	"solvelab_backend/pkg/monitoring"
	"solvelab_backend/pkg/security"
	"solvelab_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	problem     *repository.ProblemRepository
	session     *repository.SessionRepository
	audit       *repository.AuditRepository
	todo        *repository.TodoRepository
	achievement *repository.AchievementRepository
	progress    *repository.ProgressRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	ai          *service.AIService
	progress    *service.ProgressService
	achievement *service.AchievementService
	problem     *service.ProblemService
	todo        *service.TodoService
	dashboard   *service.DashboardService
}

type controllers struct {
	auth        *controller.AuthController
	problem     *controller.ProblemController
	todo        *controller.TodoController
	achievement *controller.AchievementController
	progress    *controller.ProgressController
	dashboard   *controller.DashboardController
	audit       *controller.AuditController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置热更新入口，由 configwatcher 调用
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Config reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		problem:     repository.NewProblemRepository(db),
		session:     repository.NewSessionRepository(db),
		audit:       repository.NewAuditRepository(db),
		todo:        repository.NewTodoRepository(db),
		achievement: repository.NewAchievementRepository(db),
		progress:    repository.NewProgressRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.ai = service.NewAIService(cfg.AI)
	s.progress = service.NewProgressService(repos.progress)
	s.achievement = service.NewAchievementService(repos.achievement, repos.user, repos.progress)
	s.problem = service.NewProblemService(
		repos.problem,
		repos.session,
		repos.user,
		repos.audit,
		s.ai,
		s.progress,
		s.achievement,
		rdb,
	)
	s.todo = service.NewTodoService(repos.todo)
	s.dashboard = service.NewDashboardService(repos.user, repos.todo, repos.problem, s.progress)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		problem:     controller.NewProblemController(s.problem, s.storage),
		todo:        controller.NewTodoController(s.todo),
		achievement: controller.NewAchievementController(s.achievement),
		progress:    controller.NewProgressController(s.progress),
		dashboard:   controller.NewDashboardController(s.dashboard),
		audit:       controller.NewAuditController(repos.audit),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	// 鉴权中间件从上下文取配置
	router.Use(func(c *gin.Context) {
		c.Set("config", a.Config)
		c.Next()
	})

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db)

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("solvelab", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	if !services.ai.Configured() {
		logger.Log.Warn("AI API key not configured, submissions will be rejected with 503")
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
