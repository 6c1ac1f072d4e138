package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/sanzad/portal-api/internal/handler"
	"github.com/sanzad/portal-api/internal/middleware"
	"github.com/sanzad/portal-api/internal/models"
	"github.com/sanzad/portal-api/internal/repository"
	"github.com/sanzad/portal-api/internal/service"
	"github.com/sanzad/portal-api/pkg/cache"
	"github.com/sanzad/portal-api/pkg/config"
	"github.com/sanzad/portal-api/pkg/database"
	"github.com/sanzad/portal-api/pkg/logger"
	corsmiddleware "github.com/sanzad/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sanzad/portal-api/pkg/middleware/requestid"
)

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

	// Redis backs the session revocation list only. Without it the API
	// still runs; blocked accounts keep already issued tokens until
	// expiry.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, session revocation disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()

	accountRepo := repository.NewAccountRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	classworkRepo := repository.NewClassworkRepository(db)

	revocations := service.NewRevocationList(redisClient, cfg.JWT.Expiration, logr)
	metricsSvc := service.NewMetricsService()
	accountSvc := service.NewAccountService(accountRepo, revocations, validate, logr)
	authSvc := service.NewAuthService(accountRepo, revocations, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	institutionSvc := service.NewInstitutionService(institutionRepo, accountRepo, validate, logr)
	directorySvc := service.NewDirectoryService(accountRepo, institutionRepo, logr)
	classworkSvc := service.NewClassworkService(classworkRepo, accountRepo, validate, logr)
	exportSvc := service.NewExportService(accountSvc, institutionRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc, accountSvc, metricsSvc)
	accountHandler := handler.NewAccountHandler(accountSvc, directorySvc, exportSvc)
	institutionHandler := handler.NewInstitutionHandler(institutionSvc, directorySvc, exportSvc)
	classworkHandler := handler.NewClassworkHandler(classworkSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)

		session := auth.Group("", middleware.JWT(authSvc))
		session.POST("/logout", authHandler.Logout)
		session.GET("/me", authHandler.Me)
	}

	institutions := api.Group("/institutions")
	{
		institutions.POST("/apply", institutionHandler.Apply)
		institutions.GET("/approved", institutionHandler.Approved)

		admin := institutions.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleSuperAdmin))
		admin.GET("", institutionHandler.List)
		admin.GET("/pending", institutionHandler.Pending)
		admin.POST("/:name/approve", institutionHandler.Approve)
		admin.DELETE("/:name", institutionHandler.Delete)
		if cfg.Exports.Enabled {
			admin.GET("/export", institutionHandler.Export)
		}
	}

	accounts := api.Group("/accounts", middleware.JWT(authSvc))
	{
		accounts.GET("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleInstitution), accountHandler.List)
		accounts.GET("/by-institution", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleInstitution), accountHandler.ByInstitution)
		accounts.GET("/roster", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleInstitution, models.RoleTeacher), accountHandler.Roster)
		accounts.GET("/:id", middleware.RequireRoles(models.RoleSuperAdmin), accountHandler.Get)
		accounts.PATCH("/:id/status", middleware.RequireRoles(models.RoleSuperAdmin), accountHandler.SetStatus)
		if cfg.Exports.Enabled {
			accounts.GET("/export", middleware.RequireRoles(models.RoleSuperAdmin), accountHandler.Export)
		}
	}

	classwork := api.Group("/classwork", middleware.JWT(authSvc))
	{
		classwork.POST("/assignments", middleware.RequireRoles(models.RoleTeacher), classworkHandler.CreateAssignment)
		classwork.GET("/assignments", middleware.RequireRoles(models.RoleTeacher, models.RoleStudent), classworkHandler.ListAssignments)
		classwork.POST("/assignments/:id/submissions", middleware.RequireRoles(models.RoleStudent), classworkHandler.Submit)
		classwork.GET("/submissions", middleware.RequireRoles(models.RoleTeacher, models.RoleStudent), classworkHandler.ListSubmissions)
		classwork.POST("/submissions/:id/grade", middleware.RequireRoles(models.RoleTeacher), classworkHandler.Grade)
		classwork.GET("/grades", middleware.RequireRoles(models.RoleStudent), classworkHandler.ListGrades)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
