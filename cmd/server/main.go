package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quocanhngo/raven-push/internal/config"
	"github.com/quocanhngo/raven-push/internal/handler"
	"github.com/quocanhngo/raven-push/internal/logger"
	"github.com/quocanhngo/raven-push/internal/messaging"
	"github.com/quocanhngo/raven-push/internal/middleware"
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/internal/precache"
	"github.com/quocanhngo/raven-push/internal/push"
	"github.com/quocanhngo/raven-push/internal/repository"
	"github.com/quocanhngo/raven-push/internal/shelf"
	"github.com/quocanhngo/raven-push/internal/ws"
	"github.com/quocanhngo/raven-push/migrations"
	"github.com/quocanhngo/raven-push/pkg/auth"
	"github.com/quocanhngo/raven-push/pkg/storage"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           Raven Push API
// @version         1.0
// @description     Background notification worker of the Raven chat app: push ingress, notification shelf, app windows over WebSocket.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	rollback := flag.Bool("rollback", false, "revert the last database migration and exit")
	flag.Parse()

	// ==================== Load Config ====================
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if *rollback {
		if cfg.Storage.Driver != config.StorageDriverPostgres {
			zapLogger.Fatal("Rollback needs STORAGE_DRIVER=postgres", zap.String("driver", cfg.Storage.Driver))
		}
		if err := migrations.Rollback(cfg.DB.URL(), zapLogger); err != nil {
			zapLogger.Fatal("Rollback failed", zap.Error(err))
		}
		return
	}

	zapLogger.Info("Starting raven-push", zap.String("env", cfg.App.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ==================== Redis ====================
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	zapLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr()))

	// ==================== Local Storage ====================
	kvStore, err := openKVStore(cfg, rdb, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to open local storage", zap.Error(err))
	}

	// ==================== App Windows & Shelf ====================
	hub := ws.NewHub(rdb, zapLogger)
	go hub.Run(ctx)

	notificationShelf := shelf.New(hub)

	// ==================== Precache ====================
	assetCache := openPrecache(ctx, cfg, zapLogger)

	// ==================== Worker ====================
	siteLocation, err := cfg.App.Location()
	if err != nil {
		zapLogger.Fatal("Invalid site timezone", zap.Error(err))
	}
	workerOpts := push.Options{
		ScriptURL:    cfg.App.WorkerURL,
		UserAgent:    cfg.App.UserAgent,
		Location:     siteLocation,
		Storage:      kvStore,
		Registration: notificationShelf,
		Clients:      hub,
		Logger:       zapLogger,
	}
	if assetCache != nil {
		workerOpts.Precache = assetCache
	}
	worker := push.NewWorker(ctx, workerOpts)

	// ==================== Push Ingress ====================
	go messaging.NewRedisSubscriber(rdb, messaging.PushChannel, worker, zapLogger).Run(ctx)

	if cfg.RabbitMQ.URI != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.URI)
		if err != nil {
			zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer conn.Close()

		consumer := messaging.NewConsumer(conn, zapLogger, cfg.RabbitMQ.Queue, cfg.RabbitMQ.Concurrency,
			messaging.NewProcessor(zapLogger, worker))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				zapLogger.Error("RabbitMQ consumer failed", zap.Error(err))
			}
		}()
		defer consumer.Stop()
	} else {
		zapLogger.Info("RABBITMQ_URI not set, push queue consumer disabled")
	}

	// ==================== Handlers ====================
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	pushHandler := handler.NewPushHandler(worker, zapLogger)
	notificationHandler := handler.NewNotificationHandler(notificationShelf, worker)
	storageHandler := handler.NewStorageHandler(kvStore)
	workerHandler := handler.NewWorkerHandler(worker, assetCache)
	wsHandler := handler.NewWSHandler(hub, notificationShelf, worker, jwtManager, zapLogger)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ZapLogger(zapLogger))
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Serve swagger.json at /docs/swagger.json to avoid conflict with /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")
	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":                "ok",
			"service":               "raven-push",
			"worker_active":         worker.Active(),
			"notifications_enabled": worker.NotificationsEnabled(),
			"windows":               hub.ConnectionCount(),
			"time":                  time.Now().Format(time.RFC3339),
		})
	})

	// Precached assets (public, like the files a service worker serves)
	router.GET("/assets/*path", workerHandler.Asset)

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtManager, rdb))
	{
		// Push ingress
		protected.POST("/push", pushHandler.Push)

		// Notification shelf
		protected.GET("/notifications", notificationHandler.ListNotifications)
		protected.POST("/notifications/:id/click", notificationHandler.Click)
		protected.DELETE("/notifications/:id", notificationHandler.Dismiss)

		// Local storage
		protected.GET("/storage/:key", storageHandler.GetItem)
		protected.PUT("/storage/:key", storageHandler.SetItem)
		protected.DELETE("/storage/:key", storageHandler.DeleteItem)

		// Worker
		protected.GET("/worker", workerHandler.Status)
	}

	// WebSocket endpoint (auth via query parameter)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	zapLogger.Info("raven-push listening",
		zap.String("addr", "http://0.0.0.0:"+cfg.App.Port),
		zap.String("docs", "/swagger/index.html"),
		zap.String("ws", "/ws?token=<jwt>"))

	<-ctx.Done()
	zapLogger.Info("Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	zapLogger.Info("Server exited gracefully")
}

// openKVStore returns the local key-value storage selected by STORAGE_DRIVER
func openKVStore(cfg *config.Config, rdb *redis.Client, zapLogger *zap.Logger) (repository.KVStore, error) {
	if cfg.Storage.Driver == config.StorageDriverRedis {
		return repository.NewRedisKVRepository(rdb), nil
	}

	gormLogger := gormlogger.Default.LogMode(gormlogger.Info)
	if cfg.App.Env == "production" {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	zapLogger.Info("Connected to PostgreSQL")

	if err := migrations.Run(cfg.DB.URL(), zapLogger); err != nil {
		zapLogger.Warn("Migration failed, falling back to GORM AutoMigrate", zap.Error(err))
		if err := db.AutoMigrate(&model.KVItem{}); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return repository.NewGormKVRepository(db), nil
}

// openPrecache loads the manifest and opens the asset store. The worker runs
// without a precache when either is unavailable.
func openPrecache(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) *precache.Precache {
	entries, err := precache.LoadManifest(cfg.Precache.ManifestPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zapLogger.Warn("Precache disabled", zap.Error(err))
		} else {
			zapLogger.Info("No precache manifest, precache disabled", zap.String("path", cfg.Precache.ManifestPath))
		}
		return nil
	}

	var store storage.Storage = storage.NewMemory()
	if cfg.Precache.Store == config.PrecacheStoreMinIO {
		minioStore, err := storage.NewMinIO(ctx, storage.Config{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("MinIO not available, precaching in memory", zap.Error(err))
		} else {
			store = minioStore
		}
	}

	return precache.New(entries, cfg.Precache.AssetOrigin, &http.Client{Timeout: 30 * time.Second}, store, zapLogger)
}
