package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/handler"
	"github.com/noah-isme/timetable-admin-api/internal/middleware"
	"github.com/noah-isme/timetable-admin-api/internal/service"
	"github.com/noah-isme/timetable-admin-api/pkg/config"
	"github.com/noah-isme/timetable-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-admin-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Terms           *handler.TermHandler
	Calendars       *handler.CalendarHandler
	Rooms           *handler.RoomHandler
	Lecturers       *handler.LecturerHandler
	Groups          *handler.GroupHandler
	ProgramSubjects *handler.ProgramSubjectHandler
	Schedules       *handler.ScheduleHandler
	Metrics         *handler.MetricsHandler
}

// New assembles the gin engine with the shared middleware chain and every route.
func New(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, metricsPath))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET(metricsPath, h.Metrics.Prometheus)
		r.GET(metricsPath+"/summary", h.Metrics.Summary)
	}
	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	terms := api.Group("/terms")
	terms.GET("", h.Terms.List)
	terms.POST("", h.Terms.Create)
	terms.GET("/:id", h.Terms.Get)
	terms.PUT("/:id", h.Terms.Update)
	terms.DELETE("/:id", h.Terms.Delete)

	calendars := api.Group("/calendars")
	calendars.GET("", h.Calendars.List)
	calendars.POST("", h.Calendars.Create)
	calendars.GET("/:id", h.Calendars.Get)
	calendars.PUT("/:id", h.Calendars.Update)
	calendars.DELETE("/:id", h.Calendars.Delete)

	rooms := api.Group("/rooms")
	rooms.GET("", h.Rooms.List)
	rooms.POST("", h.Rooms.Create)
	rooms.GET("/:id", h.Rooms.Get)
	rooms.PUT("/:id", h.Rooms.Update)
	rooms.DELETE("/:id", h.Rooms.Delete)
	rooms.GET("/:id/schedules", h.Schedules.ByRoom)

	lecturers := api.Group("/lecturers")
	lecturers.GET("", h.Lecturers.List)
	lecturers.POST("", h.Lecturers.Create)
	lecturers.GET("/:id", h.Lecturers.Get)
	lecturers.PUT("/:id", h.Lecturers.Update)
	lecturers.DELETE("/:id", h.Lecturers.Delete)
	lecturers.GET("/:id/schedules", h.Schedules.ByLecturer)

	groups := api.Group("/groups")
	groups.GET("", h.Groups.List)
	groups.POST("", h.Groups.Create)
	groups.GET("/:id", h.Groups.Get)
	groups.PUT("/:id", h.Groups.Update)
	groups.DELETE("/:id", h.Groups.Delete)
	groups.GET("/:id/schedules", h.Schedules.ByGroup)

	subjects := api.Group("/program-subjects")
	subjects.GET("", h.ProgramSubjects.List)
	subjects.POST("", h.ProgramSubjects.Create)
	subjects.GET("/:id", h.ProgramSubjects.Get)
	subjects.PUT("/:id", h.ProgramSubjects.Update)
	subjects.DELETE("/:id", h.ProgramSubjects.Delete)

	schedules := api.Group("/schedules")
	schedules.GET("", h.Schedules.List)
	schedules.POST("", h.Schedules.Create)
	schedules.POST("/validate", h.Schedules.Validate)
	schedules.POST("/batches", h.Schedules.CreateBatch)
	schedules.GET("/:id", h.Schedules.Get)
	schedules.PUT("/:id", h.Schedules.Update)
	schedules.DELETE("/:id", h.Schedules.Delete)

	return r
}
