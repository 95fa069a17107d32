package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hotel-desk-backend/config"
	"hotel-desk-backend/internal/api"
	"hotel-desk-backend/internal/auth"
	"hotel-desk-backend/internal/db"
	"hotel-desk-backend/internal/lock"
	"hotel-desk-backend/internal/logging"
	"hotel-desk-backend/internal/metrics"
	"hotel-desk-backend/internal/notification"
	"hotel-desk-backend/internal/store"
	"hotel-desk-backend/internal/sweeper"
	"hotel-desk-backend/internal/upload"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath))

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	locker, closeLock := newLocker(ctx, cfg.Lock, logger)
	defer closeLock()

	appStore := store.NewGormStore(gormDB, locker, logger.Named("store"))
	if err := appStore.Seed(ctx, cfg.Seed); err != nil {
		logger.Fatal("failed to seed database", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)

	var webpushOptions *webpush.Options
	var notifier api.Notifier
	var workerPool *notification.WorkerPool
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		workerPool = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions, logger, appMetrics)
		workerPool.Start(ctx)
		notifier = workerPool
	} else {
		logger.Warn("VAPID keys not configured, booking notifications are disabled")
	}

	sweeperSvc := sweeper.NewService(cfg.Sweeper, appStore, logger, appMetrics)
	go sweeperSvc.Run(ctx)

	router := api.NewRouter(cfg, api.Deps{
		Store:    appStore,
		Auth:     auth.NewManager(cfg.Auth),
		Uploads:  upload.NewSaver(cfg.Upload.Dir, cfg.Upload.MaxFileBytes),
		Notifier: notifier,
		WebPush:  webpushOptions,
		Metrics:  appMetrics,
		Gatherer: reg,
		Logger:   logger.Named("http"),
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}
	cancel()
	if workerPool != nil {
		workerPool.Wait()
	}

	logger.Info("server gracefully stopped")
}

// newLocker returns the Redis lock when an address is configured and the
// in-process lock otherwise.
func newLocker(ctx context.Context, cfg config.LockConfig, logger *zap.Logger) (lock.Locker, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-process booking lock")
		return lock.NewLocal(), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("failed to reach redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	logger.Info("using redis booking lock", zap.String("addr", cfg.RedisAddr), zap.String("key", cfg.Key))
	return lock.NewRedis(client, cfg.Key, cfg.TTL, logger.Named("lock")), func() { client.Close() }
}
