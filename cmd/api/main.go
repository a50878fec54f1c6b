package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/latra/medicsystem-gta-backend/pkg/identity"
	"github.com/latra/medicsystem-gta-backend/pkg/logger"
	"github.com/latra/medicsystem-gta-backend/pkg/validator"

	"github.com/latra/medicsystem-gta-backend/internal/config"
	"github.com/latra/medicsystem-gta-backend/internal/email"
	examHandler "github.com/latra/medicsystem-gta-backend/internal/handler/exam"
	"github.com/latra/medicsystem-gta-backend/internal/handler/health"
	patientHandler "github.com/latra/medicsystem-gta-backend/internal/handler/patient"
	"github.com/latra/medicsystem-gta-backend/internal/handler/prometheus"
	systemHandler "github.com/latra/medicsystem-gta-backend/internal/handler/system"
	userHandler "github.com/latra/medicsystem-gta-backend/internal/handler/user"
	visitHandler "github.com/latra/medicsystem-gta-backend/internal/handler/visit"
	"github.com/latra/medicsystem-gta-backend/internal/middleware"
	"github.com/latra/medicsystem-gta-backend/internal/repository/postgres"
	"github.com/latra/medicsystem-gta-backend/internal/router"
	authService "github.com/latra/medicsystem-gta-backend/internal/service/auth"
	examService "github.com/latra/medicsystem-gta-backend/internal/service/exam"
	examResultService "github.com/latra/medicsystem-gta-backend/internal/service/examresult"
	patientService "github.com/latra/medicsystem-gta-backend/internal/service/patient"
	userService "github.com/latra/medicsystem-gta-backend/internal/service/user"
	visitService "github.com/latra/medicsystem-gta-backend/internal/service/visit"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(logger.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
	})

	if err := validator.Register(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validation rules")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var redisClient redis.UniversalClient
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis url")
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	visitRepo := postgres.NewVisitRepository(db)
	examRepo := postgres.NewExamRepository(db)
	examResultRepo := postgres.NewExamResultRepository(db)

	// Identity provider
	verifier := identity.NewTokenVerifier(identity.TokenVerifierConfig{
		Secret:   cfg.Identity.Secret,
		Issuer:   cfg.Identity.Issuer,
		Audience: cfg.Identity.Audience,
	})
	provisioner := identity.NewAdminClient(identity.AdminClientConfig{
		BaseURL: cfg.Identity.AdminBaseURL,
		APIKey:  cfg.Identity.AdminAPIKey,
	})

	var mailer email.Service
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPService(cfg.SMTP)
	} else {
		mailer = email.NewNoopService()
	}

	// Services
	authSvc := authService.NewService(verifier, userRepo, redisClient, cfg.Identity.CacheTTL, appLogger)
	userSvc := userService.NewService(userRepo, provisioner, authSvc, mailer, appLogger)
	patientSvc := patientService.NewService(patientRepo, visitRepo)
	visitSvc := visitService.NewService(visitRepo, patientRepo, userRepo, appLogger)
	examSvc := examService.NewService(examRepo)
	examResultSvc := examResultService.NewService(examResultRepo, examRepo, patientRepo, userRepo, mailer, appLogger)

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	// Handlers
	userH := userHandler.NewHandler(userSvc, authMiddleware)
	patientH := patientHandler.NewHandler(patientSvc, authMiddleware)
	visitH := visitHandler.NewHandler(visitSvc, authMiddleware)
	examH := examHandler.NewHandler(examSvc, examResultSvc, authMiddleware)
	systemH := systemHandler.NewHandler()
	healthH := health.NewHandler(db)
	metricsH := prometheus.New()

	r := router.NewRouter(
		authMiddleware,
		userH,
		patientH,
		visitH,
		examH,
		systemH,
		healthH,
		metricsH,
		router.RouterConfig{
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			RateLimitEnabled: cfg.RateLimit.Enabled,
			CORSConfig:       middleware.DefaultCORSConfig(),
		},
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info(fmt.Sprintf("starting server on port %d", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	appLogger.Info("server stopped")
}
