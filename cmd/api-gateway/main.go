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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner-api/internal/catalog"
	"github.com/noah-isme/timetable-planner-api/internal/handler"
	"github.com/noah-isme/timetable-planner-api/internal/repository"
	"github.com/noah-isme/timetable-planner-api/internal/service"
	"github.com/noah-isme/timetable-planner-api/pkg/cache"
	"github.com/noah-isme/timetable-planner-api/pkg/config"
	"github.com/noah-isme/timetable-planner-api/pkg/database"
	"github.com/noah-isme/timetable-planner-api/pkg/logger"
)

// @title Timetable Planner API
// @version 1.0.0
// @description Builds conflict-free weekly timetables from a course catalog
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Migrations.Enabled {
		if err := database.Migrate(db, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var cacheClient redis.Cmdable
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheClient = client
		}
	}

	app := buildApp(cfg, db, cacheClient, logr)
	r := newRouter(cfg, app, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// app holds the wired services and handlers.
type app struct {
	tokens      *service.TokenService
	metrics     *service.MetricsService
	courses     *handler.CourseHandler
	preferences *handler.PreferenceHandler
	timetables  *handler.TimetableHandler
	ops         *handler.MetricsHandler
}

func buildApp(cfg *config.Config, db *sqlx.DB, cacheClient redis.Cmdable, logr *zap.Logger) *app {
	validate := validator.New()
	metrics := service.NewMetricsService()

	courseRepo := repository.NewCourseRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	savedRepo := repository.NewSavedTimetableRepository(db)
	cacheRepo := repository.NewCacheRepository(cacheClient)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr.Named("cache"), cfg.Cache.Enabled && cacheClient != nil)
	catalogSvc := service.NewCatalogService(courseRepo, catalog.NewLoader(','), cacheSvc, validate, logr.Named("catalog"))
	prefSvc := service.NewPreferenceService(prefRepo, cacheSvc, validate, logr.Named("preferences"))
	timetableSvc := service.NewTimetableService(courseRepo, prefRepo, savedRepo, cacheSvc, metrics, validate, logr.Named("timetables"), service.TimetableConfig{
		MaxResults: cfg.Scheduler.MaxResults,
		Timeout:    cfg.Scheduler.Timeout,
		MaxCourses: cfg.Scheduler.MaxCourses,
		CacheTTL:   cfg.Cache.TTL,
	})

	checks := map[string]handler.Pinger{"postgres": db}
	if cacheClient != nil {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	return &app{
		tokens:      service.NewTokenService(cfg.JWT.Secret, 0),
		metrics:     metrics,
		courses:     handler.NewCourseHandler(catalogSvc),
		preferences: handler.NewPreferenceHandler(prefSvc),
		timetables:  handler.NewTimetableHandler(timetableSvc),
		ops:         handler.NewMetricsHandler(metrics, checks),
	}
}
