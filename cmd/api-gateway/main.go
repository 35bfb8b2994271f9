package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/brightpath-labs/campus-ops-api/api/swagger"
	"github.com/brightpath-labs/campus-ops-api/internal/handler"
	"github.com/brightpath-labs/campus-ops-api/internal/middleware"
	"github.com/brightpath-labs/campus-ops-api/internal/models"
	"github.com/brightpath-labs/campus-ops-api/internal/repository"
	"github.com/brightpath-labs/campus-ops-api/internal/service"
	"github.com/brightpath-labs/campus-ops-api/pkg/cache"
	"github.com/brightpath-labs/campus-ops-api/pkg/config"
	"github.com/brightpath-labs/campus-ops-api/pkg/database"
	"github.com/brightpath-labs/campus-ops-api/pkg/logger"
	corsmiddleware "github.com/brightpath-labs/campus-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/brightpath-labs/campus-ops-api/pkg/middleware/requestid"
)

// @title Campus Ops API
// @version 0.1.0
// @description SAP compliance engine and attendance ledger
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The engine runs without a cache; history reads just hit the
		// database every time.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	students := repository.NewStudentRepository(db)
	programs := repository.NewProgramRepository(db)
	configs := repository.NewSAPConfigRepository(db)
	evaluations := repository.NewSAPEvaluationRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	audits := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	dispatchSvc := service.NewDispatchService(
		service.NewLogNotificationSink(logr),
		audits,
		service.DispatchConfig{Workers: cfg.SAP.DispatchWorkers, Timeout: cfg.SAP.DispatchTimeout},
		metricsSvc,
		logr,
	)
	dispatchSvc.Start(ctx)
	defer dispatchSvc.Stop()

	sapSvc := service.NewSAPService(students, programs, configs, evaluations, dispatchSvc, cacheRepo, cfg.SAP.HistoryCacheTTL, metricsSvc, logr)
	triggerSvc := service.NewTriggerService(sapSvc, students, cfg.SAP.BatchConcurrency, logr)
	attendanceSvc := service.NewAttendanceService(attendance, students, validate, logr)
	exportSvc := service.NewExportService(evaluations, cfg.Exports.MaxPageSize, logr)
	authSvc := service.NewAuthService(cfg.JWT.Secret)

	sapHandler := handler.NewSAPHandler(sapSvc, triggerSvc, exportSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	staffOrSelf := middleware.RBAC(
		string(models.RoleSuperAdmin), string(models.RoleAdmin),
		string(models.RoleRegistrar), string(models.RoleInstructor), "SELF",
	)
	adminOnly := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleRegistrar)

	api.GET("/students/:id/sap/evaluations", staffOrSelf, sapHandler.History)
	api.GET("/students/:id/sap/due", staffOrSelf, sapHandler.Due)
	api.POST("/students/:id/sap/evaluations", adminOnly, sapHandler.Evaluate)
	api.POST("/sap/run", adminOnly, sapHandler.RunBatch)
	if cfg.Exports.Enabled {
		api.GET("/students/:id/sap/evaluations/export", staffOrSelf, sapHandler.Export)
	}

	if cfg.Attendance.Enabled {
		api.POST("/students/:id/attendance/clock", adminOnly, attendanceHandler.Clock)
		api.GET("/students/:id/attendance/hours", staffOrSelf, attendanceHandler.Hours)
		api.GET("/students/:id/attendance/events", staffOrSelf, attendanceHandler.Events)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown", "error", err)
	}
}
