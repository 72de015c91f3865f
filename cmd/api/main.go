package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/schola-blog/schola-api/internal/handler"
	"github.com/schola-blog/schola-api/internal/middleware"
	"github.com/schola-blog/schola-api/internal/repository"
	"github.com/schola-blog/schola-api/internal/service"
	"github.com/schola-blog/schola-api/pkg/cache"
	"github.com/schola-blog/schola-api/pkg/config"
	"github.com/schola-blog/schola-api/pkg/database"
	"github.com/schola-blog/schola-api/pkg/export"
	"github.com/schola-blog/schola-api/pkg/logger"
	corsmiddleware "github.com/schola-blog/schola-api/pkg/middleware/cors"
	reqidmiddleware "github.com/schola-blog/schola-api/pkg/middleware/requestid"
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	var cacheRepo *repository.CacheRepository
	cacheEnabled := cfg.Cache.Enabled
	if cacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			cacheEnabled = false
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close()
		}
	}

	var referenceCache, postsCache *service.CacheService
	if cacheEnabled {
		referenceCache = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ReferenceTTL, logr, true)
		postsCache = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.PostsTTL, logr, true)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teachingRepo := repository.NewTeachingRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	postRepo := repository.NewPostRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, postRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, teachingRepo, validate, logr)
	teachingSvc := service.NewTeachingService(teachingRepo, referenceCache, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, referenceCache, logr)
	postSvc := service.NewPostService(postRepo, studentRepo, userRepo, postsCache, validate, logr)
	exportSvc := service.NewExportService(userRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(middleware.Metrics(metricsSvc))
	}

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		User:     handler.NewUserHandler(userSvc, authSvc, exportSvc),
		Student:  handler.NewStudentHandler(studentSvc),
		Teaching: handler.NewTeachingHandler(teachingSvc),
		Subject:  handler.NewSubjectHandler(subjectSvc),
		Post:     handler.NewPostHandler(postSvc),
		Metrics:  handler.NewMetricsHandler(metricsSvc),
	}, authSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
