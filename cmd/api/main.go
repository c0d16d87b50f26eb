package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/opticheck/screening-api/internal/config"
	"github.com/opticheck/screening-api/internal/email"
	auditHandler "github.com/opticheck/screening-api/internal/handler/audit"
	authHandler "github.com/opticheck/screening-api/internal/handler/auth"
	healthHandler "github.com/opticheck/screening-api/internal/handler/health"
	patientHandler "github.com/opticheck/screening-api/internal/handler/patient"
	promHandler "github.com/opticheck/screening-api/internal/handler/prometheus"
	screeningHandler "github.com/opticheck/screening-api/internal/handler/screening"
	userHandler "github.com/opticheck/screening-api/internal/handler/user"
	"github.com/opticheck/screening-api/internal/middleware"
	"github.com/opticheck/screening-api/internal/repository/postgres"
	"github.com/opticheck/screening-api/internal/router"
	auditService "github.com/opticheck/screening-api/internal/service/audit"
	authService "github.com/opticheck/screening-api/internal/service/auth"
	patientService "github.com/opticheck/screening-api/internal/service/patient"
	screeningService "github.com/opticheck/screening-api/internal/service/screening"
	userService "github.com/opticheck/screening-api/internal/service/user"
	"github.com/opticheck/screening-api/pkg/auth"
	"github.com/opticheck/screening-api/pkg/logger"
	"github.com/opticheck/screening-api/pkg/metrics"
	"github.com/opticheck/screening-api/pkg/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Log.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.New("opticheck", "api")

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(baseRepo)
	patientRepo := postgres.NewPatientRepository(baseRepo)
	screeningRepo := postgres.NewScreeningRepository(baseRepo)
	auditRepo := postgres.NewAuditRepository(baseRepo)
	tokenRepo := postgres.NewTokenRepository(baseRepo)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	// Services
	auditor := auditService.NewService(auditRepo, cfg.Audit.HashSecret, cfg.Audit.FailClosed, m, log)
	jwtSvc := auth.NewService(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL, log)
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	emailSvc := email.NewService(cfg.SMTP)

	authSvc := authService.NewService(userRepo, tokenRepo, jwtSvc, hasher, emailSvc, auditor, log)
	patientSvc := patientService.NewService(patientRepo, outboxRepo, auditor, log)
	screeningSvc := screeningService.NewService(screeningRepo, patientRepo, outboxRepo, auditor, log)
	userSvc := userService.NewService(userRepo, hasher, auditor)

	// HTTP layer
	authMW := middleware.NewAuthMiddleware(jwtSvc, auditor, m)
	r := router.New(router.Handlers{
		Auth:      authHandler.NewHandler(authSvc, m),
		Patient:   patientHandler.NewHandler(patientSvc),
		Screening: screeningHandler.NewHandler(screeningSvc),
		Audit:     auditHandler.NewHandler(auditor),
		User:      userHandler.NewHandler(userSvc),
		Health:    healthHandler.NewHandler(db),
		Metrics:   promHandler.New(),
	}, authMW, router.Config{
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		CORS:           middleware.DefaultCORSConfig(),
	}, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")
	r.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
