package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/email"
	adminHandler "github.com/jwalitptl/clinic-api/internal/handler/admin"
	diagnosisHandler "github.com/jwalitptl/clinic-api/internal/handler/diagnosis"
	doctorHandler "github.com/jwalitptl/clinic-api/internal/handler/doctor"
	healthHandler "github.com/jwalitptl/clinic-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	prometheusHandler "github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	visitHandler "github.com/jwalitptl/clinic-api/internal/handler/visit"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
	"github.com/jwalitptl/clinic-api/internal/service/admin"
	"github.com/jwalitptl/clinic-api/internal/service/diagnosis"
	"github.com/jwalitptl/clinic-api/internal/service/doctor"
	"github.com/jwalitptl/clinic-api/internal/service/insurance"
	"github.com/jwalitptl/clinic-api/internal/service/notification"
	"github.com/jwalitptl/clinic-api/internal/service/patient"
	"github.com/jwalitptl/clinic-api/internal/service/scheduling"
	"github.com/jwalitptl/clinic-api/internal/service/visit"
	"github.com/jwalitptl/clinic-api/internal/worker"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type stores struct {
	patients  repository.PatientRepository
	doctors   repository.DoctorRepository
	diagnoses repository.DiagnosisRepository
	visits    repository.VisitRepository
	// pinger is nil for the memory driver.
	pinger healthHandler.Pinger
	close  func() error
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, m *metrics.Metrics) (*stores, error) {
	if cfg.Driver == "memory" {
		mem := memory.New()
		return &stores{
			patients:  mem.Patients,
			doctors:   mem.Doctors,
			diagnoses: mem.Diagnoses,
			visits:    mem.Visits,
			close:     func() error { return nil },
		}, nil
	}

	db, err := postgres.NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &stores{
		patients:  postgres.NewPatientRepository(db, m),
		doctors:   postgres.NewDoctorRepository(db, m),
		diagnoses: postgres.NewDiagnosisRepository(db, m),
		visits:    postgres.NewVisitRepository(db, m),
		pinger:    db,
		close:     db.Close,
	}, nil
}

func runServer(parent context.Context, cfg *config.Config) error {
	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	})
	log.Logger = *appLogger.Zerolog()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, "clinic")

	st, err := openStores(ctx, cfg.Database, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			appLogger.Error(err, "failed to close database")
		}
	}()

	var broker messaging.Broker
	if cfg.Redis.Enabled {
		broker, err = redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), appLogger.Zerolog())
		if err != nil {
			return err
		}
		defer broker.Close()
	}

	emailSvc := email.NewLogService(appLogger)
	if cfg.SMTP.Enabled {
		emailSvc = email.NewSMTPService(cfg.SMTP)
	}
	dispatcher := notification.NewDispatcher(broker, emailSvc, m, appLogger, cfg.Notification.Timeout)

	v := validator.New()
	visitSvc := visit.NewService(st.visits, st.diagnoses, v, m, appLogger)
	schedulingSvc := scheduling.NewService(
		st.patients, st.doctors, st.diagnoses, st.visits,
		insurance.NewGate(st.patients), v, m, appLogger,
		scheduling.WithNotifier(dispatcher),
	)
	doctorSvc := doctor.NewService(st.doctors, v, appLogger)
	adminSvc := admin.NewService(st.patients, st.doctors, st.diagnoses, st.visits, appLogger)

	routerConfig := router.RouterConfig{
		Mode:           cfg.Server.Mode,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = &middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		}
	}
	r := router.NewRouter(
		middleware.NewAuthMiddleware(auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)),
		router.Handlers{
			Patient:    patientHandler.NewHandler(patient.NewService(st.patients, st.doctors, v, appLogger)),
			Doctor:     doctorHandler.NewHandler(doctorSvc, schedulingSvc, visitSvc),
			Diagnosis:  diagnosisHandler.NewHandler(diagnosis.NewService(st.diagnoses, v)),
			Visit:      visitHandler.NewHandler(schedulingSvc, visitSvc),
			Admin:      adminHandler.NewHandler(adminSvc),
			Health:     healthHandler.NewHandler(st.pinger),
			Prometheus: prometheusHandler.New(reg),
		},
		m,
		routerConfig,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("driver", strings.ToLower(cfg.Database.Driver)).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	if cfg.Purge.Enabled {
		purger := worker.NewPurgeWorker(adminSvc, cfg.Purge.Retention, cfg.Purge.Interval, appLogger, m)
		g.Go(func() error { return purger.Start(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		dispatcher.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server exited properly")
	return nil
}
