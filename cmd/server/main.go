package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/talentsync/interviewd/internal/app"
	"github.com/talentsync/interviewd/internal/auth"
	"github.com/talentsync/interviewd/internal/config"
	"github.com/talentsync/interviewd/internal/content"
	"github.com/talentsync/interviewd/internal/httpapi"
	"github.com/talentsync/interviewd/internal/notify"
	"github.com/talentsync/interviewd/internal/pipeline"
	"github.com/talentsync/interviewd/internal/repository"
	"github.com/talentsync/interviewd/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to init migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	sessionRepo := repository.NewSessionRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	// The rate limiter prefers a shared Redis counter; without one it
	// falls back to the in-process store.
	var counterStore pipeline.CounterStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal("Redis ping failed", zap.Error(err))
		}
		cancel()
		defer redisClient.Close()
		counterStore = pipeline.NewRedisCounterStore(redisClient)
	} else {
		logger.Warn("REDIS_ADDR not set, rate limit counters are process-local")
		counterStore = pipeline.NewMemoryCounterStore()
	}

	var transport notify.Transport
	if cfg.AMQPURL != "" {
		amqpTransport, err := notify.NewAMQPTransport(cfg.AMQPURL, cfg.MailQueue)
		if err != nil {
			logger.Fatal("Failed to connect to mail exchange", zap.Error(err))
		}
		defer amqpTransport.Close()
		transport = amqpTransport
	} else {
		logger.Warn("AMQP_URL not set, lifecycle emails will only be logged")
		transport = notify.NewLogTransport(logger)
	}

	dispatcher := notify.NewDispatcher(transport, notificationRepo, notify.DefaultRetryPolicy(), logger)
	contentClient := content.NewClient(cfg.ContentBaseURL, cfg.ContentAPIKey, 15*time.Second)
	sessions := service.NewSessionService(sessionRepo, eventRepo, dispatcher, contentClient, logger)

	limiter := pipeline.NewLimiter(counterStore, cfg.SignalLimit, cfg.SignalWindow, logger)
	proctoring := pipeline.New(eventRepo, contentClient, limiter, logger)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	server := httpapi.NewServer(sessions, proctoring, limiter, verifier, logger)

	reminderJob := app.NewReminderJob(sessions, cfg.ReminderLead, cfg.ReminderInterval, logger)
	reminderJob.Start(ctx)
	defer reminderJob.Stop()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
}
