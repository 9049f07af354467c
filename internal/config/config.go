package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	Log      LogConfig
	DB       DBConfig
	Redis    RedisConfig
	Storage  StorageConfig
	JWT      JWTConfig
	CORS     CORSConfig
	RabbitMQ RabbitMQConfig
	MinIO    MinIOConfig
	Precache PrecacheConfig
}

type AppConfig struct {
	Env  string `env:"APP_ENV" env-default:"development"`
	Port string `env:"APP_PORT" env-default:"8080"`
	// WorkerURL is the script URL the worker was registered with; its
	// "config" query parameter carries the Firebase web config.
	WorkerURL string `env:"WORKER_URL" env-default:"http://localhost:8080/sw.js"`
	// Timezone of the site; creation times in push messages carry no offset
	Timezone string `env:"APP_TIMEZONE" env-default:"Local"`
	// UserAgent of the platform the notifications are rendered on
	UserAgent string `env:"WORKER_USER_AGENT" env-default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"`
}

// Location returns the site timezone
func (a AppConfig) Location() (*time.Location, error) {
	return time.LoadLocation(a.Timezone)
}

type LogConfig struct {
	Level    string `env:"LOG_LEVEL" env-default:"info"`
	Encoding string `env:"LOG_ENCODING" env-default:"json"`
}

type DBConfig struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"raven"`
	Password string `env:"DB_PASSWORD" env-default:"raven"`
	Name     string `env:"DB_NAME" env-default:"raven_push"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

// DSN returns the PostgreSQL connection string
func (d DBConfig) DSN() string {
	return "host=" + d.Host +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" port=" + d.Port +
		" sslmode=" + d.SSLMode
}

// URL returns the PostgreSQL connection URL (for golang-migrate)
func (d DBConfig) URL() string {
	return "postgres://" + d.User + ":" + d.Password +
		"@" + d.Host + ":" + d.Port +
		"/" + d.Name + "?sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" env-default:"localhost"`
	Port     string `env:"REDIS_PORT" env-default:"6379"`
	Password string `env:"REDIS_PASSWORD"`
}

// Addr returns the Redis address
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// Storage drivers for the local key-value storage
const (
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
)

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" env-default:"redis"`
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET" env-default:"default-secret"`
	Expiry time.Duration `env:"JWT_EXPIRY" env-default:"24h"`
}

type CORSConfig struct {
	Origins []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
}

type RabbitMQConfig struct {
	URI         string `env:"RABBITMQ_URI"` // push queue consumer disabled when empty
	Queue       string `env:"PUSH_QUEUE_NAME" env-default:"raven_push"`
	Concurrency int    `env:"WORKER_CONCURRENCY" env-default:"10"`
}

type MinIOConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretKey string `env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	Bucket    string `env:"MINIO_BUCKET" env-default:"raven-precache"`
	UseSSL    bool   `env:"MINIO_USE_SSL" env-default:"false"`
}

// Precache stores
const (
	PrecacheStoreMemory = "memory"
	PrecacheStoreMinIO  = "minio"
)

type PrecacheConfig struct {
	ManifestPath string `env:"PRECACHE_MANIFEST" env-default:"precache-manifest.json"`
	AssetOrigin  string `env:"PRECACHE_ORIGIN" env-default:"http://localhost:3000"`
	Store        string `env:"PRECACHE_STORE" env-default:"memory"`
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if not exists - e.g. in Docker)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	switch cfg.Storage.Driver {
	case StorageDriverRedis, StorageDriverPostgres:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Precache.Store {
	case PrecacheStoreMemory, PrecacheStoreMinIO:
	default:
		return nil, fmt.Errorf("unknown precache store %q", cfg.Precache.Store)
	}

	if _, err := cfg.App.Location(); err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	if cfg.RabbitMQ.Concurrency <= 0 {
		cfg.RabbitMQ.Concurrency = 1
	}

	return &cfg, nil
}
