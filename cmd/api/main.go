package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/internal/handler"
	"github.com/noah-isme/turmas-api/internal/repository"
	"github.com/noah-isme/turmas-api/internal/router"
	"github.com/noah-isme/turmas-api/internal/service"
	"github.com/noah-isme/turmas-api/pkg/config"
	"github.com/noah-isme/turmas-api/pkg/jobs"
	"github.com/noah-isme/turmas-api/pkg/kvstore"
	"github.com/noah-isme/turmas-api/pkg/logger"
	"github.com/noah-isme/turmas-api/pkg/validation"
)

// @title Turmas API
// @version 1.0.0
// @description Course catalog, class sections and seat enrollment
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := kvstore.Open(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open document store", zap.Error(err))
	}
	defer func() {
		if closer, ok := store.(kvstore.Closer); ok {
			if err := closer.Close(); err != nil {
				logr.Warn("failed to close document store", zap.Error(err))
			}
		}
	}()

	metrics := service.NewMetricsService()
	validate := validation.New()

	queue := jobs.NewQueue("mutations", jobs.QueueConfig{BufferSize: cfg.Ledger.QueueBuffer, Logger: logr})
	queue.Start(context.Background())
	defer queue.Stop()

	sectionRepo := repository.NewSectionRepository(store, logr, metrics)
	userRepo := repository.NewUserRepository(store, logr, metrics)
	courseRepo := repository.NewCourseRepository(store, logr, metrics)
	favoriteRepo := repository.NewFavoriteRepository(store, logr, metrics)

	ledger := service.NewLedgerService(sectionRepo, queue, validate, logr, service.WithLedgerMetrics(metrics), service.WithAccountDirectory(userRepo))
	courses := service.NewCourseService(courseRepo, ledger, logr)
	if cfg.Courses.Seed {
		if _, err := courses.Seed(ctx, service.DefaultCatalog()); err != nil {
			logr.Fatal("failed to seed course catalog", zap.Error(err))
		}
	}
	favorites := service.NewFavoriteService(favoriteRepo, courses, queue, logr, service.WithFavoriteAccounts(userRepo))
	users := service.NewUserService(userRepo, queue, ledger, favorites, validate, logr)
	auth := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	roster := service.NewRosterService(ledger, userRepo, logr)

	r := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableMetrics:  cfg.Metrics.Enabled,
		EnableDocs:     cfg.Docs.Enabled && cfg.Env != config.EnvProduction,
	}, logr, auth, metrics, router.Handlers{
		Auth:        handler.NewAuthHandler(auth, users),
		Users:       handler.NewUserHandler(users),
		Courses:     handler.NewCourseHandler(courses),
		Favorites:   handler.NewFavoriteHandler(favorites),
		Sections:    handler.NewSectionHandler(ledger, roster),
		Enrollment:  handler.NewEnrollmentHandler(ledger),
		CPF:         handler.NewCPFHandler(),
		Observation: handler.NewMetricsHandler(metrics, store),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
