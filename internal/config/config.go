package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backends de persistencia admitidos para tareas y usuarios.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMongoDB  = "mongodb"
)

type Config struct {
	HTTPPort string
	GRPCPort string
	LogLevel string

	TaskStore   string
	SQLitePath  string
	DatabaseURL string
	MongoURI    string
	MongoDB     string

	RedisAddr    string
	UseKafka     bool
	KafkaBrokers []string

	ClickHouseAddr string // vacío desactiva la analítica
	ClickHouseDB   string
	ArchivePath    string // vacío desactiva el archivo

	CacheTTL     time.Duration
	OutboxPeriod time.Duration
	OutboxLimit  int

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
}

func LoadConfig() *Config {
	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		GRPCPort: getEnv("GRPC_PORT", "9090"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		TaskStore:   strings.ToLower(getEnv("TASK_STORE", StoreSQLite)),
		SQLitePath:  getEnv("SQLITE_PATH", "./hexatask.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "hexatask"),

		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		UseKafka:     getBool("USE_KAFKA", false),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),

		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "default"),
		ArchivePath:    getEnv("ARCHIVE_PATH", "./archive/tasks.json"),

		CacheTTL:     getDuration("CACHE_TTL", 2*time.Minute),
		OutboxPeriod: getDuration("OUTBOX_PERIOD", time.Second),
		OutboxLimit:  getInt("OUTBOX_LIMIT", 10),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 100),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

// Validate comprueba las combinaciones que no tienen valor por defecto razonable.
func (c *Config) Validate() error {
	switch c.TaskStore {
	case StoreSQLite, StoreMongoDB:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("TASK_STORE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown TASK_STORE %q (want sqlite, postgres or mongodb)", c.TaskStore)
	}
	if c.OutboxLimit <= 0 {
		return fmt.Errorf("OUTBOX_LIMIT must be positive, got %d", c.OutboxLimit)
	}
	if c.OutboxPeriod <= 0 {
		return fmt.Errorf("OUTBOX_PERIOD must be positive, got %s", c.OutboxPeriod)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

// getDuration acepta "30s" o segundos a secas.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
