package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis RedisConfig

	Quota      QuotaConfig
	Burst      BurstConfig
	Cache      CacheConfig
	Generation GenerationConfig
}

// RedisConfig configures the shared redis client. An empty Addr disables
// every redis-backed component.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// QuotaConfig selects the monthly counter backing store and the free tier
// allowance. Pro and expert tiers are unlimited monthly.
type QuotaConfig struct {
	Store            string // "db" or "redis"
	FreeMonthlyLimit int
}

// BurstConfig selects the burst window store and per-tier burst quotas.
type BurstConfig struct {
	Store       string // "db" or "redis"
	Window      time.Duration
	FreeLimit   int
	ProLimit    int
	ExpertLimit int
}

// CacheConfig controls the result cache. Backend "disabled" turns caching
// off entirely; the admission pipeline then treats every probe as a miss.
type CacheConfig struct {
	Backend string // "redis", "memory" or "disabled"
	TTL     time.Duration
}

// GenerationConfig bounds the backend call.
type GenerationConfig struct {
	Timeout time.Duration
}

const (
	StoreDB    = "db"
	StoreRedis = "redis"

	CacheBackendRedis    = "redis"
	CacheBackendMemory   = "memory"
	CacheBackendDisabled = "disabled"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "strategen"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "strategen"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),

		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       getenvInt("REDIS_DB", 0),
		},

		Quota: QuotaConfig{
			Store:            normalizeStore(getenv("QUOTA_STORE", StoreDB)),
			FreeMonthlyLimit: getenvInt("QUOTA_FREE_MONTHLY_LIMIT", 3),
		},
		Burst: BurstConfig{
			Store:       normalizeStore(getenv("BURST_STORE", StoreDB)),
			Window:      getenvDuration("BURST_WINDOW", 5*time.Hour),
			FreeLimit:   getenvInt("BURST_FREE_LIMIT", 10),
			ProLimit:    getenvInt("BURST_PRO_LIMIT", 50),
			ExpertLimit: getenvInt("BURST_EXPERT_LIMIT", 100),
		},
		Cache: CacheConfig{
			Backend: normalizeCacheBackend(getenv("CACHE_BACKEND", CacheBackendMemory)),
			TTL:     getenvDuration("CACHE_TTL", 24*time.Hour),
		},
		Generation: GenerationConfig{
			Timeout: getenvDuration("GENERATION_TIMEOUT", 2*time.Minute),
		},
	}

	return cfg
}

func normalizeStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StoreRedis:
		return StoreRedis
	default:
		return StoreDB
	}
}

func normalizeCacheBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case CacheBackendRedis:
		return CacheBackendRedis
	case CacheBackendDisabled, "off", "none":
		return CacheBackendDisabled
	default:
		return CacheBackendMemory
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
