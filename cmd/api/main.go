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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/config"
	"classattend/internal/events"
	"classattend/internal/handler"
	"classattend/internal/httpmiddleware"
	"classattend/internal/logging"
	"classattend/internal/queue"
	"classattend/internal/report"
	"classattend/internal/store"
	"classattend/internal/timetable"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.Production())

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		slog.Error("http server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()
	log := logging.Component("api")

	db, err := store.NewDB(ctx, cfg.DatabaseURL, store.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		if db == nil {
			return err
		}
		log.Warn("db not reachable", slog.String("error", err.Error()))
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	gdb, err := db.Gorm()
	if err != nil {
		return err
	}
	dir := timetable.NewDirectory(gdb)

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	}

	reports := report.NewService(report.NewRepository(db.Client), dir, report.NewRedisCache(redisClient.Client, cfg.ReportCacheTTL))
	ledger := attendance.NewRepository(db.Client)
	marks := attendance.NewService(ledger, dir, events.NewPublisher(reports, q))

	// Nothing else reads an in-process queue, so drain it here.
	if mem, ok := q.(*queue.InMemory); ok {
		msgs, err := mem.Consume(ctx)
		if err != nil {
			return err
		}
		go events.NewProcessor(reports).Run(ctx, msgs)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db.Healthy(c.Request.Context())
		redisHealthy := redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy || !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"db": dbHealthy, "redis": redisHealthy})
	})

	var limiter httpmiddleware.Limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	if cfg.RateLimitBackend == "redis" {
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin)
	}

	api := r.Group("/api",
		auth.Authenticate(cfg.JWTSigningKey, cfg.JWTIssuer),
		httpmiddleware.RateLimit(limiter))
	handler.New(marks, ledger, reports, dir).Register(api)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", slog.String("error", err.Error()))
	}
	log.Info("server exited")
	return nil
}
