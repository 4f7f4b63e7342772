package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/engdata/equipsync/internal/store"
	"github.com/engdata/equipsync/pkg/storage"
)

// Config is the explicit, passed-down configuration for every entry point.
// Nothing in the pipeline reads ambient process state.
type Config struct {
	Store   StoreConfig
	Redis   RedisConfig
	Storage storage.Config
	Run     RunConfig
	Log     LogConfig
}

type StoreConfig struct {
	Dialect store.Dialect
	DSN     string
}

type RedisConfig struct {
	Addr string
	DB   int
}

type RunConfig struct {
	MaxConcurrentUnits  int
	DocumentOpenTimeout time.Duration
}

type LogConfig struct {
	Level    string
	Encoding string
	Path     string
}

// Load reads .env (when present) and the environment into a Config. The
// .env file is optional: deployed processes carry real environment variables.
func Load(envPath string) (*Config, error) {
	if envPath == "" {
		envPath = ".env"
	}
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	cfg := &Config{
		Store: StoreConfig{
			Dialect: store.Dialect(getEnv("STORE_DIALECT", string(store.DialectPostgres))),
			DSN:     getEnv("STORE_DSN", "postgres://postgres@localhost:5432/equipsync?sslmode=disable"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
			DB:   getEnvInt("REDIS_DB", 0),
		},
		Storage: storage.Config{
			Type:       storage.ProviderType(getEnv("STORAGE_TYPE", string(storage.ProviderTypeLocal))),
			Endpoint:   os.Getenv("MINIO_ENDPOINT"),
			AccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey:  os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:     getEnvBool("MINIO_USE_SSL", false),
			Region:     os.Getenv("MINIO_REGION"),
			BucketName: os.Getenv("MINIO_BUCKET_NAME"),
		},
		Run: RunConfig{
			MaxConcurrentUnits:  getEnvInt("MAX_CONCURRENT_UNITS", 4),
			DocumentOpenTimeout: getEnvDuration("DOCUMENT_OPEN_TIMEOUT", 2*time.Minute),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
			Path:     getEnv("LOG_PATH", "logs/equipsync.log"),
		},
	}

	if cfg.Storage.Type == storage.ProviderTypeMinio && cfg.Storage.Endpoint == "" {
		return nil, fmt.Errorf("STORAGE_TYPE=minio requires MINIO_ENDPOINT")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
