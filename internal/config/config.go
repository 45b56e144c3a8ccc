package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/urlchat-backend/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	// Connect retry: generation calls are never retried, the DB boundary is.
	DBConnectRetry pkgRetry.RetryConfig `envPrefix:"DB_CONNECT_RETRY_"`

	// Generation backend configuration
	GeminiCfg GeminiConnectorConfig `envPrefix:"GEMINI_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Suggestion cache TTL for per-group example questions
	SuggestionCacheTTL time.Duration `env:"SUGGESTION_CACHE_TTL" envDefault:"10m"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (only required by cmd/telegram-bot)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// GeminiConnectorConfig holds the generation backend settings. APIKey is
// deliberately not marked notEmpty: the server must boot without it and
// surface a configuration error on the first ask instead.
type GeminiConnectorConfig struct {
	HTTPClientConfig
	APIKey         string `env:"API_KEY"`
	Model          string `env:"MODEL" envDefault:"gemini-2.5-flash"`
	AnswerLanguage string `env:"ANSWER_LANGUAGE" envDefault:"English"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken      string `env:"BOT_TOKEN"`
	UpdateTimeout int    `env:"UPDATE_TIMEOUT" envDefault:"30"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"90s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"90s"`
	Url                   string        `env:"SERVICE_URL" envDefault:"https://generativelanguage.googleapis.com"`
}

// FileUploadConfig holds file upload limits. MaxContextChars caps the total
// characters of local context merged into one request.
type FileUploadConfig struct {
	MaxFileSize     int64 `env:"MAX_FILE_SIZE" envDefault:"20971520"`   // 20 MiB per file
	MaxUploadSize   int64 `env:"MAX_UPLOAD_SIZE" envDefault:"134217728"` // 128 MiB per multipart request
	MaxFileCount    int   `env:"MAX_FILE_COUNT" envDefault:"512"`
	MaxContextChars int   `env:"MAX_CONTEXT_CHARS" envDefault:"1000000"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if cfg.FileUploadCfg.MaxContextChars < 1 {
		errs = append(errs, fmt.Sprintf("FILE_UPLOAD_MAX_CONTEXT_CHARS must be positive, got %d", cfg.FileUploadCfg.MaxContextChars))
	}

	if cfg.FileUploadCfg.MaxFileCount < 1 {
		errs = append(errs, fmt.Sprintf("FILE_UPLOAD_MAX_FILE_COUNT must be positive, got %d", cfg.FileUploadCfg.MaxFileCount))
	}

	if cfg.GeminiCfg.Model == "" {
		errs = append(errs, "GEMINI_MODEL must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
