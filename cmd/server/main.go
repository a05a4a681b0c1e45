package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"anoa.com/tutorhub/internal/bootstrap"
	"anoa.com/tutorhub/internal/config"
	"anoa.com/tutorhub/internal/server"
	"anoa.com/tutorhub/pkg/database"
	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/storage"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer appLog.Sync()

	db, err := database.Connect(database.Options{
		Driver:     cfg.DBDriver,
		URL:        cfg.DatabaseURL,
		Host:       cfg.DBHost,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		Port:       cfg.DBPort,
		SQLitePath: cfg.SQLitePath,
		LogQueries: !cfg.IsProduction(),
	})
	if err != nil {
		appLog.Fatal("failed to connect database", "error", err)
	}
	if err := bootstrap.Run(db); err != nil {
		appLog.Fatal("migration failed", "error", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			appLog.Fatal("invalid REDIS_URL", "error", err)
		}
		redisClient = redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			appLog.Warn("redis unreachable, rate limiting and live notifications are degraded", "error", err)
		}
		cancel()
		defer redisClient.Close()
	}

	var meiliClient meilisearch.ServiceManager
	if cfg.MeiliSearchHost != "" {
		host := cfg.MeiliSearchHost
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host + ":7700"
		}
		meiliClient = meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	}

	files, err := newFileStore(cfg)
	if err != nil {
		appLog.Fatal("failed to initialize file storage", "driver", cfg.StorageDriver, "error", err)
	}

	srv, err := server.NewServer(server.Deps{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Meili:  meiliClient,
		Files:  files,
		Log:    appLog,
	})
	if err != nil {
		appLog.Fatal("failed to build server", "error", err)
	}

	srv.Scheduler().Start()
	defer srv.Scheduler().Stop()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		appLog.Info("server listening", "addr", httpServer.Addr, "env", cfg.AppEnv)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("server exited with error", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("graceful shutdown failed", "error", err)
	}
}

func newFileStore(cfg *config.Config) (storage.FileStore, error) {
	if cfg.StorageDriver == "cloudinary" {
		return storage.NewCloudinaryStore(storage.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		})
	}
	local, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	return local, nil
}
