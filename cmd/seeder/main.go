package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	fcm "firebase.google.com/go/v4/messaging"
	"github.com/quocanhngo/raven-push/internal/config"
	"github.com/quocanhngo/raven-push/internal/logger"
	"github.com/quocanhngo/raven-push/internal/messaging"
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/internal/push"
	"github.com/quocanhngo/raven-push/internal/repository"
	"github.com/quocanhngo/raven-push/pkg/auth"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// seeder stores the current user and publishes a few sample push messages
// on the Redis push channel, for local development.
func main() {
	currentUser := flag.String("user", "user1@raven.local", "value stored under currentUser")
	baseURL := flag.String("base-url", "http://localhost:8000", "site URL carried by the sample messages")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zapLogger, err := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: "console"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	var kv repository.KVStore = repository.NewRedisKVRepository(rdb)
	if cfg.Storage.Driver == config.StorageDriverPostgres {
		// Force DB logging off to avoid noise
		db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			zapLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(&model.KVItem{}); err != nil {
			zapLogger.Fatal("Failed to migrate database", zap.Error(err))
		}
		kv = repository.NewGormKVRepository(db)
	}

	if err := kv.SetItem(ctx, push.CurrentUserKey, *currentUser); err != nil {
		zapLogger.Fatal("Failed to store current user", zap.Error(err))
	}
	zapLogger.Info("Current user stored", zap.String("user", *currentUser), zap.String("driver", cfg.Storage.Driver))

	token, err := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry).GenerateToken(*currentUser, "Seeder")
	if err != nil {
		zapLogger.Fatal("Failed to generate token", zap.Error(err))
	}
	zapLogger.Info("API token", zap.String("token", token))

	for i, data := range sampleMessages(*currentUser, *baseURL) {
		body, err := json.Marshal(&fcm.Message{Data: data})
		if err != nil {
			zapLogger.Fatal("Failed to encode message", zap.Error(err))
		}
		if err := rdb.Publish(ctx, messaging.PushChannel, body).Err(); err != nil {
			zapLogger.Fatal("Failed to publish message", zap.Error(err))
		}
		zapLogger.Info("Published sample push", zap.Int("n", i+1), zap.String("title", data[model.DataKeyTitle]))
		time.Sleep(200 * time.Millisecond)
	}

	zapLogger.Info("Seeding completed")
}

func sampleMessages(currentUser, baseURL string) []map[string]string {
	now := time.Now()
	creation := func(d time.Duration) string {
		return now.Add(-d).Format("2006-01-02 15:04:05.000000")
	}

	return []map[string]string{
		{
			model.DataKeyTitle:     "user2 in #general",
			model.DataKeyBody:      "Morning everyone!",
			model.DataKeyFromUser:  "user2@raven.local",
			model.DataKeyChannelID: "general",
			model.DataKeyBaseURL:   baseURL,
			model.DataKeyCreation:  creation(3 * time.Minute),
		},
		{
			model.DataKeyTitle:       "user3 in #design",
			model.DataKeyBody:        "sent an image",
			model.DataKeyFromUser:    "user3@raven.local",
			model.DataKeyChannelID:   "design",
			model.DataKeyBaseURL:     baseURL,
			model.DataKeyMessageType: model.MessageTypeImage,
			model.DataKeyContent:     fmt.Sprintf("%s/files/mockup.png", baseURL),
			model.DataKeyCreation:    creation(2 * time.Minute),
		},
		{
			// replied from another device: closes the #general notification
			model.DataKeyTitle:     "You in #general",
			model.DataKeyBody:      "On it",
			model.DataKeyFromUser:  currentUser,
			model.DataKeyChannelID: "general",
			model.DataKeyBaseURL:   baseURL,
			model.DataKeyCreation:  creation(time.Minute),
		},
	}
}
