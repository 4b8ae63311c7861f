package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
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

	// Price data
	Prices PriceConfig

	// Optimizer defaults
	Optimizer OptimizerConfig

	// API
	API APIConfig

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

// PriceConfig selects where close prices come from
type PriceConfig struct {
	Source   string // csv, postgres
	CSVPath  string
	CacheTTL time.Duration
}

// OptimizerConfig holds the defaults applied when a request does not override them
type OptimizerConfig struct {
	RiskFreeRate         float64
	AllowShort           bool
	ClipWeights          bool // false = 음수 비중 유지 (보정 모드)
	CovarianceSource     string
	AnnualizationPeriods float64
	Tolerance            float64
	MaxIterations        int
}

// APIConfig holds HTTP surface limits
type APIConfig struct {
	RateLimit float64 // requests per second
	RateBurst int
}

// Price sources
const (
	PriceSourceCSV      = "csv"
	PriceSourcePostgres = "postgres"
)

// Covariance sources
const (
	CovarianceEmpirical = "empirical"
	CovarianceCAPM      = "capm"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Prices: PriceConfig{
			Source:   getEnv("PRICE_SOURCE", PriceSourceCSV),
			CSVPath:  getEnv("PRICE_CSV_PATH", "data/prices.csv"),
			CacheTTL: getEnvAsDuration("PRICE_CACHE_TTL", "24h"),
		},

		Optimizer: OptimizerConfig{
			RiskFreeRate:         getEnvAsFloat("RISK_FREE_RATE", 0.04),
			AllowShort:           getEnvAsBool("ALLOW_SHORT", false),
			ClipWeights:          getEnvAsBool("CLIP_WEIGHTS", true),
			CovarianceSource:     getEnv("COVARIANCE_SOURCE", CovarianceEmpirical),
			AnnualizationPeriods: getEnvAsFloat("ANNUALIZATION_PERIODS", 252),
			Tolerance:            getEnvAsFloat("SOLVER_TOLERANCE", 1e-9),
			MaxIterations:        getEnvAsInt("SOLVER_MAX_ITERATIONS", 1000),
		},

		API: APIConfig{
			RateLimit: getEnvAsFloat("API_RATE_LIMIT", 10),
			RateBurst: getEnvAsInt("API_RATE_BURST", 20),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Prices.Source {
	case PriceSourceCSV:
	case PriceSourcePostgres:
		// DB는 postgres 소스일 때만 필수
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when PRICE_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("PRICE_SOURCE must be one of: csv, postgres")
	}

	if c.Optimizer.CovarianceSource != CovarianceEmpirical && c.Optimizer.CovarianceSource != CovarianceCAPM {
		return fmt.Errorf("COVARIANCE_SOURCE must be one of: empirical, capm")
	}
	if c.Optimizer.Tolerance <= 0 {
		return fmt.Errorf("SOLVER_TOLERANCE must be positive")
	}
	if c.Optimizer.MaxIterations <= 0 {
		return fmt.Errorf("SOLVER_MAX_ITERATIONS must be positive")
	}
	if c.API.RateLimit <= 0 || c.API.RateBurst <= 0 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_BURST must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
