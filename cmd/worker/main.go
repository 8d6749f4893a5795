package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"classattend/internal/config"
	"classattend/internal/events"
	"classattend/internal/logging"
	"classattend/internal/queue"
	"classattend/internal/report"
	"classattend/internal/store"
	"classattend/internal/timetable"
)

// Worker consumes session.marked messages, drops stale report cache entries
// for the section and rebuilds the common views.
func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.Production())
	log := logging.Component("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.QueueBackend == "memory" {
		log.Error("worker needs a shared queue; QUEUE_BACKEND=memory only works in-process")
		os.Exit(1)
	}

	db, err := store.NewDB(ctx, cfg.DatabaseURL, store.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Error("db connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	gdb, err := db.Gorm()
	if err != nil {
		log.Error("gorm init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	reports := report.NewService(
		report.NewRepository(db.Client),
		timetable.NewDirectory(gdb),
		report.NewRedisCache(redisClient.Client, cfg.ReportCacheTTL),
	)

	q := queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	messages, err := q.Consume(ctx)
	if err != nil {
		log.Error("queue consume init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("worker started", slog.String("queue", cfg.QueueKey))
	events.NewProcessor(reports).Run(ctx, messages)
	log.Info("worker stopped")
}
