package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/pharmacy-api/internal/config"
	authhandler "github.com/jwalitptl/pharmacy-api/internal/handler/auth"
	consultationhandler "github.com/jwalitptl/pharmacy-api/internal/handler/consultation"
	"github.com/jwalitptl/pharmacy-api/internal/handler/health"
	medicationhandler "github.com/jwalitptl/pharmacy-api/internal/handler/medication"
	prescriptionhandler "github.com/jwalitptl/pharmacy-api/internal/handler/prescription"
	sitehandler "github.com/jwalitptl/pharmacy-api/internal/handler/site"
	"github.com/jwalitptl/pharmacy-api/internal/repository/postgres"
	"github.com/jwalitptl/pharmacy-api/internal/router"
	authsvc "github.com/jwalitptl/pharmacy-api/internal/service/auth"
	"github.com/jwalitptl/pharmacy-api/internal/service/consultation"
	"github.com/jwalitptl/pharmacy-api/internal/service/event"
	"github.com/jwalitptl/pharmacy-api/internal/service/medication"
	"github.com/jwalitptl/pharmacy-api/internal/service/prescription"
	"github.com/jwalitptl/pharmacy-api/internal/service/site"
	"github.com/jwalitptl/pharmacy-api/pkg/auth"
	"github.com/jwalitptl/pharmacy-api/pkg/httputil"
	"github.com/jwalitptl/pharmacy-api/pkg/logger"
	"github.com/jwalitptl/pharmacy-api/pkg/metrics"
	"github.com/jwalitptl/pharmacy-api/pkg/security"
	"github.com/jwalitptl/pharmacy-api/pkg/tracing"
	"github.com/jwalitptl/pharmacy-api/pkg/validator"
)

const bcryptCost = 12

func runServer(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httputil.ExposeErrorDetails(!cfg.IsProduction())
	if err := validator.Register(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	if cfg.Tracing.Enabled {
		provider, err := tracing.Init(ctx, tracing.Config{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: version,
			Environment:    cfg.Environment,
			OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
			SampleRate:     cfg.Tracing.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to flush traces")
			}
		}()
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New("pharmacy", reg)

	base := postgres.NewBaseRepository(db, m)
	consultationRepo := postgres.NewConsultationRepository(base)
	prescriptionRepo := postgres.NewPrescriptionRepository(base)
	medicationRepo := postgres.NewMedicationRepository(base)
	siteRepo := postgres.NewSiteRepository(base)
	userRepo := postgres.NewUserRepository(base)

	var events event.Emitter = event.Nop{}
	if cfg.Outbox.Enabled {
		events = event.NewEventService(postgres.NewOutboxRepository(base), logger.New(log.Logger))
	}

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})

	siteSvc := site.NewService(siteRepo, cfg.Cache.SiteTTL)
	authSvc := authsvc.NewService(userRepo, siteSvc, jwtSvc, security.NewBcryptHasher(bcryptCost))
	medicationSvc := medication.NewService(medicationRepo)
	consultationSvc := consultation.NewService(consultationRepo, events)
	prescriptionSvc := prescription.NewService(prescriptionRepo, events)

	handlers := router.Handlers{
		Health: health.NewHandler(db, reg, health.Info{
			Name:        cfg.Tracing.ServiceName,
			Version:     version,
			Environment: cfg.Environment,
		}),
		Auth:          authhandler.NewHandler(authSvc),
		Sites:         sitehandler.NewHandler(siteSvc),
		Medications:   medicationhandler.NewHandler(medicationSvc),
		Consultations: consultationhandler.NewHandler(consultationSvc),
		Prescriptions: prescriptionhandler.NewHandler(prescriptionSvc),
	}

	r := router.NewRouter(cfg, handlers, authSvc, siteSvc, m)
	r.Setup()

	srv := newHTTPServer(cfg, r.Engine())

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("environment", cfg.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
