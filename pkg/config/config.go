package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	FMP   FMPConfig
	Yahoo YahooConfig

	// Pipeline
	Collector CollectorConfig
	Universe  UniverseConfig
	Rating    RatingConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool

	// ProfileCacheTTL is how long company profiles stay cached
	ProfileCacheTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// FMPConfig holds the primary provider configuration
type FMPConfig struct {
	APIKey  string
	BaseURL string

	// RateLimit calls are allowed per RateWindow across the whole process
	RateLimit   int
	RateWindow  time.Duration
	Timeout     time.Duration
	LimiterType string // memory, redis
}

// YahooConfig holds the fallback provider configuration
type YahooConfig struct {
	BaseURL    string
	RatePerSec float64
}

// CollectorConfig controls the concurrent collection stage
type CollectorConfig struct {
	BatchSize    int
	Workers      int
	BatchTimeout time.Duration
	PriceDays    int
	Benchmarks   []string
}

// UniverseConfig controls how the ticker universe is built
type UniverseConfig struct {
	Source     string // fmp, sp500
	Exchanges  []string
	SampleSize int
	SP500URL   string
}

// RatingConfig controls the factor and ranking stages
type RatingConfig struct {
	FactorWorkers  int
	StalePriceDays int
	WeightsFile    string
	ExportDir      string
	Schedule       string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:            getEnv("REDIS_HOST", "localhost"),
			Port:            getEnv("REDIS_PORT", "6379"),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvAsInt("REDIS_DB", 0),
			Enabled:         getEnvAsBool("REDIS_ENABLED", false),
			ProfileCacheTTL: getEnvAsDuration("PROFILE_CACHE_TTL", "24h"),
		},

		// External APIs
		FMP: FMPConfig{
			APIKey:      getEnv("FMP_API_KEY", ""),
			BaseURL:     getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
			RateLimit:   getEnvAsInt("FMP_RATE_LIMIT", 750),
			RateWindow:  getEnvAsDuration("FMP_RATE_WINDOW", "60s"),
			Timeout:     getEnvAsDuration("FMP_TIMEOUT", "30s"),
			LimiterType: getEnv("RATE_LIMIT_BACKEND", "memory"),
		},

		Yahoo: YahooConfig{
			BaseURL:    getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RatePerSec: getEnvAsFloat("YAHOO_RATE_PER_SEC", 2),
		},

		// Pipeline
		Collector: CollectorConfig{
			BatchSize:    getEnvAsInt("COLLECTOR_BATCH_SIZE", 50),
			Workers:      getEnvAsInt("COLLECTOR_WORKERS", 3),
			BatchTimeout: getEnvAsDuration("COLLECTOR_BATCH_TIMEOUT", "30m"),
			PriceDays:    getEnvAsInt("COLLECTOR_PRICE_DAYS", 300),
			Benchmarks:   getEnvAsList("BENCHMARK_TICKERS", "SPY,QQQ,DIA"),
		},

		Universe: UniverseConfig{
			Source:     getEnv("UNIVERSE_SOURCE", "fmp"),
			Exchanges:  getEnvAsList("UNIVERSE_EXCHANGES", "NASDAQ,NYSE"),
			SampleSize: getEnvAsInt("SAMPLE_SIZE", 500),
			SP500URL:   getEnv("SP500_URL", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"),
		},

		Rating: RatingConfig{
			FactorWorkers:  getEnvAsInt("FACTOR_WORKERS", 4),
			StalePriceDays: getEnvAsInt("STALE_PRICE_DAYS", 10),
			WeightsFile:    getEnv("RATING_WEIGHTS_FILE", ""),
			ExportDir:      getEnv("EXPORT_DIR", "data/exports"),
			Schedule:       getEnv("RUN_SCHEDULE", "0 0 22 * * 1-5"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.FMP.RateLimit <= 0 || c.FMP.RateWindow <= 0 {
		return fmt.Errorf("FMP_RATE_LIMIT and FMP_RATE_WINDOW must be positive")
	}

	if c.FMP.LimiterType != "memory" && c.FMP.LimiterType != "redis" {
		return fmt.Errorf("RATE_LIMIT_BACKEND must be one of: memory, redis")
	}

	if c.Collector.BatchSize <= 0 || c.Collector.Workers <= 0 {
		return fmt.Errorf("COLLECTOR_BATCH_SIZE and COLLECTOR_WORKERS must be positive")
	}

	if c.Universe.Source != "fmp" && c.Universe.Source != "sp500" {
		return fmt.Errorf("UNIVERSE_SOURCE must be one of: fmp, sp500")
	}

	// 수집 워커마다 전용 커넥션 + 랭킹/API 여유분
	if c.Database.MaxConns < c.Collector.Workers+2 {
		return fmt.Errorf("DB_MAX_CONNS (%d) must be at least COLLECTOR_WORKERS+2 (%d)",
			c.Database.MaxConns, c.Collector.Workers+2)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

// getEnvAsList splits a comma separated value, dropping empty entries
func getEnvAsList(key string, defaultValue string) []string {
	parts := strings.Split(getEnv(key, defaultValue), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
