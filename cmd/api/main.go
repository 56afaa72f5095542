package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/patient-companion/config"
	"github.com/jwalitptl/patient-companion/internal/apiclient"
	"github.com/jwalitptl/patient-companion/internal/handler/admin"
	"github.com/jwalitptl/patient-companion/internal/handler/application"
	"github.com/jwalitptl/patient-companion/internal/handler/earnings"
	"github.com/jwalitptl/patient-companion/internal/handler/health"
	medicationHandler "github.com/jwalitptl/patient-companion/internal/handler/medication"
	"github.com/jwalitptl/patient-companion/internal/handler/profile"
	"github.com/jwalitptl/patient-companion/internal/middleware"
	"github.com/jwalitptl/patient-companion/internal/notifier"
	"github.com/jwalitptl/patient-companion/internal/notifier/memory"
	notifierRedis "github.com/jwalitptl/patient-companion/internal/notifier/redis"
	"github.com/jwalitptl/patient-companion/internal/reminder"
	"github.com/jwalitptl/patient-companion/internal/repository/postgres"
	"github.com/jwalitptl/patient-companion/internal/router"
	medicationService "github.com/jwalitptl/patient-companion/internal/service/medication"
	"github.com/jwalitptl/patient-companion/internal/wizard"
	"github.com/jwalitptl/patient-companion/pkg/logger"
	"github.com/jwalitptl/patient-companion/pkg/metrics"
	"github.com/jwalitptl/patient-companion/pkg/tracing"
)

const serviceName = "patient-companion-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Logging.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Logging.JSON,
	})
	m := metrics.NewMetrics("companion", prometheus.DefaultRegisterer)

	shutdownTracing, err := tracing.Init(context.Background(), tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: serviceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal(err, "Failed to initialize tracing")
	}

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	contacts := postgres.NewContactRepository(base)
	deliveries := postgres.NewDeliveryRepository(base)

	readiness := map[string]health.Pinger{"postgres": db}

	// Notification platform
	var notifiers notifier.Factory
	switch cfg.Reminders.Backend {
	case "redis":
		client, err := notifierRedis.NewClient(notifierRedis.Config{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
		})
		if err != nil {
			log.Fatal(err, "Failed to connect to Redis")
		}
		defer client.Close()
		notifiers = notifierRedis.NewPlatform(client, cfg.Redis.KeyPrefix).Factory()
		readiness["redis"] = health.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	default:
		log.Warn("Using in-memory reminders; nothing will be delivered")
		notifiers = memory.NewPlatform(nil).Factory()
	}

	api, err := apiclient.New(apiclient.Config{
		BaseURL:            cfg.Remote.BaseURL,
		Timeout:            cfg.Remote.Timeout,
		RequestsPerSecond:  cfg.Remote.RequestsPerSecond,
		Burst:              cfg.Remote.Burst,
		BreakerMaxFailures: cfg.Remote.BreakerMaxFailures,
		BreakerTimeout:     cfg.Remote.BreakerTimeout,
		BankCacheTTL:       cfg.Remote.BankCacheTTL,
	}, log, m)
	if err != nil {
		log.Fatal(err, "Failed to create remote API client")
	}

	sessions := reminder.NewRegistry(reminder.RegistryConfig{
		Notifiers: notifiers,
		Logger:    log,
		Metrics:   m,
		Location:  cfg.Location(),
	})
	medSvc := medicationService.NewService(api, sessions, log)
	wizards := wizard.NewStore(cfg.Wizard.SessionTTL)

	var limit rate.Limit
	if cfg.RateLimit.Enabled {
		limit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.JWT.Issuer),
		router.Handlers{
			Health:        health.NewHandler(readiness, prometheus.DefaultGatherer),
			Authenticated: []router.Handler{application.NewHandler(api, wizards, sessions, log)},
			Patient: []router.Handler{
				medicationHandler.NewHandler(medSvc, sessions, contacts, deliveries),
				profile.NewHandler(api),
			},
			Doctor: []router.Handler{earnings.NewHandler(api)},
			Admin:  []router.Handler{admin.NewHandler(api)},
		},
		log,
		m,
		router.RouterConfig{
			Mode:        cfg.Server.Mode,
			ServiceName: serviceName,
			RateLimit:   limit,
			RateBurst:   cfg.RateLimit.Burst,
			CORSConfig:  middleware.DefaultCORSConfig(cfg.Security.AllowedOrigins),
			SizeLimit:   middleware.DefaultSizeLimitConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Error(err, "Failed to flush traces")
	}

	log.Info("Server exited properly")
}
