// Command server runs the GACP certification workflow engine.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"certflow/internal/audittrail"
	"certflow/internal/dispatch"
	"certflow/internal/expiry"
	"certflow/internal/notify"
	"certflow/internal/payment"
	"certflow/internal/platform/config"
	"certflow/internal/platform/httpserver"
	"certflow/internal/platform/logger"
	"certflow/internal/platform/metrics"
	"certflow/internal/platform/middleware"
	"certflow/internal/platform/postgres"
	redisplatform "certflow/internal/platform/redis"
	"certflow/internal/snapshot"
	"certflow/internal/token"
	"certflow/internal/workflow/handler"
	"certflow/internal/workflow/service"
	"certflow/internal/workflow/statemachine"
	"certflow/internal/workflow/store"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	m := metrics.New()

	var (
		appStore      store.Store
		snapStore     snapshot.Store
		ledgerStore   payment.Store
		auditStore    audittrail.Store
		dispatchStore dispatch.Store
		svcOpts       []service.Option
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		appStore = store.NewPostgresStore(db)
		snapStore = snapshot.NewPostgresStore(db)
		ledgerStore = payment.NewPostgresStore(db)
		auditStore = audittrail.NewPostgresStore(db)
		dispatchStore = dispatch.NewPostgresStore(db)
		svcOpts = append(svcOpts, service.WithTxRunner(postgres.NewTxRunner(db)))
		log.Info("using postgres storage")
	} else {
		appStore = store.NewInMemoryStore()
		snapStore = snapshot.NewInMemoryStore()
		ledgerStore = payment.NewInMemoryStore()
		auditStore = audittrail.NewInMemoryStore()
		dispatchStore = dispatch.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	redisClient, err := redisplatform.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher notify.Publisher = notify.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := notify.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		publisher = kafkaPublisher
		log.Info("publishing notifications to kafka", "topic", cfg.KafkaTopic)
	} else {
		log.Warn("KAFKA_BROKERS not set, notifications are discarded")
	}
	queue := notify.NewQueue(publisher, log, m)
	queue.Start(ctx)
	defer queue.Stop()

	svc := service.New(
		appStore,
		statemachine.New(statemachine.Config{AllowRestart: cfg.AllowRestart}),
		snapshot.NewService(snapStore),
		payment.NewLedger(ledgerStore),
		audittrail.NewRecorder(auditStore, log, m),
		dispatch.NewDispatcher(dispatchStore),
		queue,
		m,
		log,
		cfg.MaxRevisionAttempts,
		svcOpts...,
	)

	tokens := token.NewService(cfg.JWTSigningKey, "certflow")
	appHandler := handler.New(svc, log)
	webhook := handler.NewWebhookHandler(svc, payment.NewHMACVerifier(cfg.WebhookSecret), log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/webhooks/payment", webhook.ConfirmPayment)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, log))
		r.Use(middleware.Timeout(30 * time.Second))
		appHandler.RegisterRoutes(r)
	})

	hostname, _ := os.Hostname()
	var locker expiry.Locker
	if redisClient != nil {
		locker = redisClient
	}
	sweeper := expiry.NewSweeper(appStore, svc, locker, log, m, cfg.SweepInterval, hostname)

	server := httpserver.New(cfg.Addr, r)
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		return sweeper.Run(ctx)
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
