package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Server captures process-wide configuration.
type Server struct {
	Addr         string
	LogLevel     string
	LogFormat    string
	LogFile      string
	StoreBackend string
	CycleTTL     time.Duration
	SQLitePath   string

	// CycleCacheSize bounds the in-process cycle cache; zero disables it.
	CycleCacheSize int
	CycleCacheTTL  time.Duration

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Priority PriorityConfig
}

// RedisConfig configures the go-redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the database/sql pool.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig enables event publication when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether a broker list was configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// PriorityConfig tunes the classification rules.
type PriorityConfig struct {
	ProximityNM         float64
	AltitudeToleranceFt int
	Concurrency         int
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Absent or unparseable values fall back to defaults.
func FromEnv() Server {
	backend := strings.ToLower(envOr("STORE_BACKEND", BackendMemory))
	switch backend {
	case BackendMemory, BackendRedis, BackendPostgres, BackendSQLite:
	default:
		backend = BackendMemory
	}

	return Server{
		Addr:         envOr("NOTAM_ADDR", ":8080"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		LogFormat:    envOr("LOG_FORMAT", "json"),
		LogFile:      os.Getenv("LOG_FILE"),
		StoreBackend: backend,
		CycleTTL:     envDuration("CYCLE_TTL", 7*24*time.Hour),
		SQLitePath:   envOr("SQLITE_PATH", "notams.db"),

		CycleCacheSize: envInt("CYCLE_CACHE_SIZE", 0),
		CycleCacheTTL:  envDuration("CYCLE_CACHE_TTL", 5*time.Minute),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_TOPIC", "notams.new"),
		},
		Priority: PriorityConfig{
			ProximityNM:         envFloat("PRIORITY_PROXIMITY_NM", 10),
			AltitudeToleranceFt: envInt("PRIORITY_ALTITUDE_TOLERANCE_FT", 2000),
			Concurrency:         envInt("EVALUATION_CONCURRENCY", 0),
		},
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
