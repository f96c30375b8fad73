package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all configuration for the sinema service.
type Config struct {
	Port                   string
	LogLevel               slog.Level
	Store                  StoreConfig
	DB                     DBConfig
	Redis                  RedisConfig
	AI                     AIConfig
	TMDB                   TMDBConfig
	RateLimitMax           int
	RateLimitWindowSeconds int
}

// StoreConfig selects the key-value backend for the profile record.
type StoreConfig struct {
	Backend    string
	KeyPrefix  string
	BadgerPath string
	SQLitePath string
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SSLRootCert string
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AIConfig holds settings for the generative completion endpoint.
type AIConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	// Zero leaves the transport default in place.
	Timeout time.Duration
}

// TMDBConfig holds TMDB API configuration. An empty key disables
// poster lookups.
type TMDBConfig struct {
	APIKey  string
	BaseURL string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	rateLimitMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "100"))
	rateLimitWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	var aiTimeout time.Duration
	if raw := getEnv("AI_TIMEOUT", ""); raw != "" {
		aiTimeout, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid AI_TIMEOUT %q: %w", raw, err)
		}
	}

	cfg := &Config{
		Port:     getEnv("SERVER_PORT", "8080"),
		LogLevel: level,
		Store: StoreConfig{
			Backend:    strings.ToLower(getEnv("STORE_BACKEND", BackendBadger)),
			KeyPrefix:  getEnv("STORE_KEY_PREFIX", ""),
			BadgerPath: getEnv("BADGER_PATH", "./data/badger"),
			SQLitePath: getEnv("SQLITE_PATH", "./data/sinema.db"),
		},
		DB: DBConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "sinema"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		AI: AIConfig{
			Provider: strings.ToLower(getEnv("AI_PROVIDER", "gemini")),
			APIKey:   getEnv("AI_API_KEY", os.Getenv("API_KEY")),
			BaseURL:  getEnv("AI_BASE_URL", ""),
			Model:    getEnv("AI_MODEL", "gemini-2.5-flash"),
			Timeout:  aiTimeout,
		},
		TMDB: TMDBConfig{
			APIKey:  getEnv("TMDB_API_KEY", ""),
			BaseURL: getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		},
		RateLimitMax:           rateLimitMax,
		RateLimitWindowSeconds: rateLimitWindow,
	}

	switch cfg.Store.Backend {
	case BackendMemory, BackendBadger, BackendRedis, BackendPostgres, BackendSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
