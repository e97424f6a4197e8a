package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-admin-api/api/swagger"
	"github.com/noah-isme/timetable-admin-api/internal/handler"
	"github.com/noah-isme/timetable-admin-api/internal/repository"
	"github.com/noah-isme/timetable-admin-api/internal/router"
	"github.com/noah-isme/timetable-admin-api/internal/service"
	"github.com/noah-isme/timetable-admin-api/pkg/cache"
	"github.com/noah-isme/timetable-admin-api/pkg/config"
	"github.com/noah-isme/timetable-admin-api/pkg/database"
	"github.com/noah-isme/timetable-admin-api/pkg/logger"
)

// @title Timetable Admin API
// @version 1.0.0
// @description Lecturer timetable administration with room, lecturer and class conflict detection.
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := repository.EnsureSchema(ctx, db); err != nil {
			logr.Fatal("failed to prepare schema", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, calendar cache disabled", zap.Error(err))
		redisClient = nil
	}
	// A nil *redis.Client must not reach the repository as a non-nil interface.
	var cacheClient redis.UniversalClient
	if redisClient != nil {
		cacheClient = redisClient
	}
	cacheRepo := repository.NewCacheRepository(cacheClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	validate, err := newValidator()
	if err != nil {
		logr.Fatal("failed to register validations", zap.Error(err))
	}

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.CalendarTTL, logr, cfg.Cache.Enabled && cacheClient != nil)
	termSvc := service.NewTermService(repository.NewTermRepository(db), validate, logr)
	calendarSvc := service.NewCalendarService(repository.NewCalendarRepository(db), cacheSvc, validate, logr, cfg.Cache.CalendarTTL)
	roomSvc := service.NewRoomService(repository.NewRoomRepository(db), validate, logr)
	lecturerSvc := service.NewLecturerService(repository.NewLecturerRepository(db), validate, logr)
	groupSvc := service.NewGroupService(repository.NewGroupRepository(db), validate, logr)
	subjectSvc := service.NewProgramSubjectService(repository.NewProgramSubjectRepository(db), validate, logr)

	scheduleRepo := repository.NewLecturerScheduleRepository(db)
	scheduleSvc := service.NewLecturerScheduleService(
		scheduleRepo,
		func(tx *sqlx.Tx) service.ScheduleTxStore { return scheduleRepo.WithTx(tx) },
		db,
		validate,
		metrics,
		logr,
		service.LecturerScheduleServiceConfig{
			MaxBatchSize: cfg.Schedules.MaxBatchSize,
			LockTimeout:  cfg.Schedules.LockTimeout,
		},
	)

	engine := router.New(cfg, logr, metrics, router.Handlers{
		Terms:           handler.NewTermHandler(termSvc),
		Calendars:       handler.NewCalendarHandler(calendarSvc),
		Rooms:           handler.NewRoomHandler(roomSvc),
		Lecturers:       handler.NewLecturerHandler(lecturerSvc),
		Groups:          handler.NewGroupHandler(groupSvc),
		ProgramSubjects: handler.NewProgramSubjectHandler(subjectSvc),
		Schedules:       handler.NewScheduleHandler(scheduleSvc),
		Metrics: handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
			"database": db.PingContext,
			"cache":    cacheRepo.Ping,
		}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
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

// newValidator reports field errors under their JSON names and knows the
// custom request tags.
func newValidator() (*validator.Validate, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := service.RegisterValidations(validate); err != nil {
		return nil, err
	}
	return validate, nil
}
