package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwalitptl/patient-companion/config"
	"github.com/jwalitptl/patient-companion/internal/email"
	notifierRedis "github.com/jwalitptl/patient-companion/internal/notifier/redis"
	"github.com/jwalitptl/patient-companion/internal/repository/postgres"
	internalWorker "github.com/jwalitptl/patient-companion/internal/worker"
	"github.com/jwalitptl/patient-companion/pkg/logger"
	"github.com/jwalitptl/patient-companion/pkg/messaging/redis"
	"github.com/jwalitptl/patient-companion/pkg/metrics"
	"github.com/jwalitptl/patient-companion/pkg/security"
	"github.com/jwalitptl/patient-companion/pkg/tracing"
	"github.com/jwalitptl/patient-companion/pkg/worker"
)

// deliveryPurpose separates the delivery-body key from other keys derived
// from the same secret.
const deliveryPurpose = "reminder-deliveries"

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
	if cfg.Reminders.Backend != "redis" {
		log.Fatal(errors.New("reminders.backend must be redis"), "Worker needs a shared notification platform")
	}
	m := metrics.NewMetrics("companion_worker", prometheus.DefaultRegisterer)

	shutdownTracing, err := tracing.Init(context.Background(), tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "patient-companion-worker",
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal(err, "Failed to initialize tracing")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	client, err := notifierRedis.NewClient(notifierRedis.Config{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
	})
	if err != nil {
		log.Fatal(err, "Failed to connect to Redis")
	}
	broker := redis.NewRedisBroker(client, log)
	defer broker.Close()

	encryptor, err := security.NewEncryptor(cfg.Security.EncryptionKey, deliveryPurpose)
	if err != nil {
		log.Fatal(err, "Failed to set up delivery encryption")
	}

	base := postgres.NewBaseRepository(db)
	deliveries := postgres.NewDeliveryRepository(base)

	deps := worker.DispatcherDeps{
		Platform:   notifierRedis.NewPlatform(client, cfg.Redis.KeyPrefix),
		Broker:     broker,
		Deliveries: deliveries,
		Encryptor:  encryptor,
		Logger:     log,
		Metrics:    m,
	}
	if cfg.Email.Enabled {
		deps.Contacts = postgres.NewContactRepository(base)
		deps.Mailer = email.NewService(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		})
	}

	dispatcher := worker.NewDispatcher(deps, worker.DispatcherConfig{
		BatchSize:     cfg.Dispatcher.BatchSize,
		PollInterval:  cfg.Dispatcher.PollInterval,
		RetryAttempts: cfg.Dispatcher.RetryAttempts,
		RetryDelay:    cfg.Dispatcher.RetryDelay,
		PushChannel:   cfg.Dispatcher.PushChannel,
	})
	cleanup := internalWorker.NewDeliveryCleanupWorker(deliveries, cfg.Dispatcher.Retention, cfg.Dispatcher.CleanupInterval, log)

	srv := setupHealthCheck(cfg.Server.Port, db.PingContext)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		dispatcher.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Health server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error(err, "Failed to flush traces")
	}
}

func setupHealthCheck(port int, ping func(context.Context) error) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
