// Package config centralizes environment-variable configuration and the
// storage/logging client constructors built from it. There is no
// file-based configuration surface; every recognized variable and its
// default is listed here.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/remiges-tech/logharbour/logharbour"
)

// Config holds every environment-derived setting recognized by the system.
type Config struct {
	SecretKey string

	MySQLHost     string
	MySQLPort     int
	MySQLDatabase string
	MySQLUser     string
	MySQLPassword string

	RedisURL string

	WorkerCount      int
	InferenceTimeout time.Duration
	MaxRetries       int
	BatchWindowMS    int
	InferenceEngine  string
	InferenceDevice  string

	RecoveryInterval time.Duration

	// PredictorURL, when set, selects the HTTP-sidecar Predictor
	// implementation over the in-process stub. This only chooses which
	// Predictor implementation a worker process constructs; it carries
	// no scheduling semantics of its own.
	PredictorURL string

	// WorkerBin is the path to the worker binary the supervisor spawns.
	// Defaults to "./worker" (a sibling of the supervisor binary in the
	// typical build layout).
	WorkerBin string
}

// Load reads configuration from the environment, applying the defaults
// named in the external interface: WORKER_COUNT=2, INFERENCE_TIMEOUT=10s,
// MAX_RETRIES=3, BATCH_WINDOW_MS=30, RECOVERY_INTERVAL=600s.
func Load() Config {
	return Config{
		SecretKey: os.Getenv("SECRET_KEY"),

		MySQLHost:     getEnv("MYSQL_HOST", "localhost"),
		MySQLPort:     getEnvInt("MYSQL_PORT", 3306),
		MySQLDatabase: getEnv("MYSQL_DATABASE", "inference_scheduler"),
		MySQLUser:     getEnv("MYSQL_USER", "root"),
		MySQLPassword: os.Getenv("MYSQL_PASSWORD"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		WorkerCount:      getEnvInt("WORKER_COUNT", 2),
		InferenceTimeout: time.Duration(getEnvInt("INFERENCE_TIMEOUT", 10)) * time.Second,
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		BatchWindowMS:    getEnvInt("BATCH_WINDOW_MS", 30),
		InferenceEngine:  getEnv("INFERENCE_ENGINE", "default"),
		InferenceDevice:  getEnv("INFERENCE_DEVICE", "auto"),

		RecoveryInterval: time.Duration(getEnvInt("RECOVERY_INTERVAL", 600)) * time.Second,

		PredictorURL: os.Getenv("PREDICTOR_URL"),
		WorkerBin:    getEnv("WORKER_BIN", "./worker"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

// DSN builds the MySQL connection string gorm.io/driver/mysql expects.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLDatabase)
}

// NewDB opens the MySQL connection via gorm.
func NewDB(cfg Config) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
}

// NewRedisClient parses REDIS_URL and constructs a client.
func NewRedisClient(cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("config: invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewLogger builds a structured logger tagged with the given module name
// (e.g. "inference-api", "inference-worker"), writing to w.
func NewLogger(module string, w io.Writer) *logharbour.Logger {
	return logharbour.NewLogger(&logharbour.LoggerContext{}, module, w)
}
