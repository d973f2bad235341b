package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/classgrid/timetable-api/api/swagger"
	"github.com/classgrid/timetable-api/internal/client"
	"github.com/classgrid/timetable-api/internal/handler"
	"github.com/classgrid/timetable-api/internal/middleware"
	"github.com/classgrid/timetable-api/internal/models"
	"github.com/classgrid/timetable-api/internal/repository"
	"github.com/classgrid/timetable-api/internal/service"
	"github.com/classgrid/timetable-api/pkg/cache"
	"github.com/classgrid/timetable-api/pkg/config"
	"github.com/classgrid/timetable-api/pkg/database"
	"github.com/classgrid/timetable-api/pkg/logger"
	corsmiddleware "github.com/classgrid/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classgrid/timetable-api/pkg/middleware/requestid"
)

// @title ClassGrid Timetable API
// @version 0.1.0
// @description Classroom timetable scheduling with a drag-drop grid and batch commit
// @BasePath /
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	}

	classRepo := repository.NewClassRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	timeSlotRepo := repository.NewTimeSlotRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()

	catalogOpts := []service.CatalogServiceOption{}
	if cfg.Catalog.CacheEnabled && redisClient != nil {
		catalogOpts = append(catalogOpts, service.WithCatalogCache(cacheRepo, cfg.Catalog.CacheTTL))
	}
	catalogSvc := service.NewCatalogService(classRepo, timeSlotRepo, roomRepo, teacherRepo, logr, catalogOpts...)
	scheduleSvc := service.NewScheduleService(scheduleRepo, classRepo, timeSlotRepo, validate, logr)
	metricsSvc := service.NewMetricsService()

	gridCfg := service.GridServiceConfig{
		SessionTTL:   cfg.Grid.SessionTTL,
		RoomStamping: cfg.Grid.RoomStamping,
	}

	// The grid either edits the local database or proxies a not-yet-migrated
	// upstream, depending on LEGACY_API_URL.
	var gridSvc *service.GridService
	if cfg.Legacy.BaseURL != "" {
		legacy := client.NewLegacyClient(cfg.Legacy.BaseURL, &http.Client{Timeout: cfg.Legacy.Timeout}, logr)
		gridSvc = service.NewGridService(legacy, legacy, gridCfg, validate, logr, service.WithGridMetrics(metricsSvc))
		logr.Sugar().Infow("grid backed by legacy upstream", "base_url", cfg.Legacy.BaseURL)
	} else {
		gridSvc = service.NewGridService(catalogSvc, scheduleSvc, gridCfg, validate, logr, service.WithGridMetrics(metricsSvc))
	}

	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	gridHandler := handler.NewGridHandler(gridSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, logr, catalogHandler, scheduleHandler, gridHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerRoutes(r *gin.Engine, cfg *config.Config, logr *zap.Logger, catalog *handler.CatalogHandler, schedules *handler.ScheduleHandler, grid *handler.GridHandler) {
	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	api.GET("/classes", catalog.Classes)
	api.GET("/time-slots", catalog.TimeSlots)
	api.GET("/rooms", catalog.Rooms)
	api.GET("/teachers", catalog.Teachers)

	api.GET("/schedules", schedules.List)
	api.GET("/schedules/:id", schedules.Get)
	api.POST("/schedules/check-conflicts", schedules.CheckConflicts)

	// Writes are reserved for staff running the scheduler.
	staff := api.Group("")
	staff.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))

	staff.POST("/schedules", schedules.Create)
	staff.PUT("/schedules/:id", schedules.Update)
	staff.DELETE("/schedules/:id", schedules.Delete)

	sessions := staff.Group("/grid/sessions")
	sessions.POST("", grid.Open)
	sessions.GET("/:id", grid.Get)
	sessions.DELETE("/:id", grid.Close)
	sessions.POST("/:id/drag", grid.BeginDrag)
	sessions.DELETE("/:id/drag", grid.CancelDrag)
	sessions.POST("/:id/drop", grid.Drop)
	sessions.POST("/:id/unassign", grid.Unassign)
	sessions.PUT("/:id/filter", grid.SetFilter)
	sessions.POST("/:id/commit", grid.Commit)
	sessions.POST("/:id/cancel", grid.Cancel)
	sessions.GET("/:id/export", grid.Export)

	logr.Sugar().Infow("routes registered", "prefix", cfg.APIPrefix)
}
