package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-planner-api/api/swagger"
	"github.com/noah-isme/timetable-planner-api/internal/middleware"
	"github.com/noah-isme/timetable-planner-api/internal/models"
	"github.com/noah-isme/timetable-planner-api/pkg/config"
	"github.com/noah-isme/timetable-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-planner-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, a *app, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", a.ops.Health)
	r.GET("/ready", a.ops.Ready)
	r.GET("/metrics", a.ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	api.GET("/metrics/summary", a.ops.Snapshot)

	courses := api.Group("/courses")
	courses.GET("", a.courses.List)
	courses.GET("/:id", a.courses.Get)
	admin := courses.Group("", middleware.JWT(a.tokens), middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/import", a.courses.Import)
	admin.PUT("/:id", a.courses.Put)
	admin.DELETE("/:id", a.courses.Delete)

	prefs := api.Group("/preferences")
	prefs.GET("", a.preferences.List)
	prefs.POST("", a.preferences.Create)
	prefs.PATCH("/:id", a.preferences.Update)
	prefs.DELETE("/:id", a.preferences.Delete)

	timetables := api.Group("/timetables")
	timetables.POST("/generate", a.timetables.Generate)
	timetables.GET("", a.timetables.List)
	timetables.POST("", a.timetables.Save)
	timetables.GET("/:id", a.timetables.Get)
	timetables.DELETE("/:id", a.timetables.Delete)
	timetables.GET("/:id/export", a.timetables.Export)

	return r
}
