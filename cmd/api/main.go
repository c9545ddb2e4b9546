package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/pal-track-api/api/swagger"
	"github.com/noah-isme/pal-track-api/internal/handler"
	"github.com/noah-isme/pal-track-api/internal/middleware"
	"github.com/noah-isme/pal-track-api/internal/models"
	"github.com/noah-isme/pal-track-api/internal/repository"
	"github.com/noah-isme/pal-track-api/internal/service"
	"github.com/noah-isme/pal-track-api/pkg/cache"
	"github.com/noah-isme/pal-track-api/pkg/config"
	"github.com/noah-isme/pal-track-api/pkg/database"
	"github.com/noah-isme/pal-track-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pal-track-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pal-track-api/pkg/middleware/requestid"
)

// @title PAL Track API
// @version 1.0.0
// @description Peer-assisted learning enrollment, application and session tracking
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	settingsSvc := service.NewSettingsService(settingsRepo, userRepo, logr, cfg.Rules)
	catalogSvc := service.NewCatalogService(catalogRepo, cacheRepo, metricsSvc, logr, cfg.Catalog.CacheTTL)
	registrationSvc := service.NewRegistrationService(userRepo, studentRepo, catalogRepo, settingsSvc, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, catalogRepo, userRepo, settingsSvc, logr)
	sessionSvc := service.NewSessionService(sessionRepo, applicationRepo, catalogRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	importSvc := service.NewImportService(userRepo, logr, cfg.Import.MaxRecords)
	exportSvc := service.NewExportService(applicationRepo, sessionRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc, metricsSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc, metricsSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc, metricsSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	userHandler := handler.NewUserHandler(userSvc, importSvc, metricsSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)

	catalog := api.Group("/catalog")
	catalog.GET("/programs", catalogHandler.ListPrograms)
	catalog.GET("/programs/:id/years", catalogHandler.ListYears)
	catalog.GET("/courses", catalogHandler.EligibleCourses)
	catalog.POST("/courses", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleManager), catalogHandler.CreateCourse)

	registration := api.Group("/registration")
	registration.POST("/start", registrationHandler.Start)
	registration.POST("/next", registrationHandler.Next)
	registration.POST("/back", registrationHandler.Back)
	registration.POST("/cancel", registrationHandler.Cancel)
	registration.POST("/submit", registrationHandler.Submit)

	applications := api.Group("/applications", middleware.JWT(authSvc))
	applications.POST("/start", applicationHandler.Start)
	applications.POST("/next", applicationHandler.Next)
	applications.POST("/back", applicationHandler.Back)
	applications.POST("/cancel", applicationHandler.Cancel)
	applications.POST("/decline", applicationHandler.Decline)
	applications.POST("/submit", applicationHandler.Submit)
	applications.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), applicationHandler.List)
	applications.GET("/:id", applicationHandler.Get)
	applications.POST("/:id/approve", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), applicationHandler.Approve)
	applications.POST("/:id/reject", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), applicationHandler.Reject)

	sessions := api.Group("/sessions", middleware.JWT(authSvc))
	sessions.POST("", sessionHandler.Schedule)
	sessions.GET("", sessionHandler.List)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.POST("/:id/complete", sessionHandler.Complete)
	sessions.POST("/:id/cancel", sessionHandler.Cancel)
	sessions.POST("/:id/feedback", sessionHandler.SubmitFeedback)
	sessions.GET("/:id/feedback", sessionHandler.GetFeedback)

	users := api.Group("/users", middleware.JWT(authSvc))
	users.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), userHandler.List)
	users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleManager), middleware.SelfAccess), userHandler.Get)
	users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
	users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Update)
	users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)
	users.POST("/import", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), userHandler.Import)

	settings := api.Group("/settings", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	settings.GET("", settingsHandler.List)
	settings.PUT("/:key", settingsHandler.Update)

	exports := api.Group("/export", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
	exports.GET("/applications", exportHandler.Applications)
	exports.GET("/sessions", exportHandler.Sessions)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
