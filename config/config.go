package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ServiceName identifies this service in health responses and logs.
const ServiceName = "login-telemetry"

// Store backends selectable via STORE_BACKEND.
const (
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
)

// Config represents the complete application configuration. It is built
// once at startup and treated as immutable for the process lifetime; no
// component reads the environment after this point.
type Config struct {
	Server        ServerConfig
	Store         StoreConfig
	Notify        NotifyConfig
	Throttle      ThrottleConfig
	GeoIP         GeoIPConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string `validate:"required"`
	Port            int    `validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig selects and configures the append-only record store.
type StoreConfig struct {
	Backend         string `validate:"oneof=file postgres"`
	Path            string
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NotifyConfig holds the outbound notification channel settings. Empty
// values mean the channel is not configured, which is a non-fatal state.
type NotifyConfig struct {
	DiscordWebhookURL string `validate:"omitempty,url"`
	TelegramBotToken  string
	TelegramChatID    string
	Timeout           time.Duration
}

// ThrottleConfig holds the request-admission gate settings. A ceiling of
// zero disables throttling.
type ThrottleConfig struct {
	RequestsPerMinute int `validate:"gte=0"`
}

// GeoIPConfig holds the optional MaxMind database path used to decorate
// notification summaries.
type GeoIPConfig struct {
	DBPath string
}

// ObservabilityConfig holds logging configuration.
type ObservabilityConfig struct {
	LogLevel  string `validate:"required"`
	LogFormat string `validate:"oneof=json text"`
}

// New creates a new Config instance by loading environment variables.
func New() (*Config, error) {
	// Load .env if present (no-op otherwise).
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Backend:         getEnv("STORE_BACKEND", StoreBackendFile),
			Path:            getEnv("STORE_PATH", "data/logins.jsonl"),
			DatabaseURL:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Notify: NotifyConfig{
			DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
			TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			TelegramChatID:    getEnv("TELEGRAM_CHAT_ID", ""),
			Timeout:           getEnvAsDuration("NOTIFY_TIMEOUT", 5*time.Second),
		},
		Throttle: ThrottleConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		GeoIP: GeoIPConfig{
			DBPath: getEnv("GEOIP_DB_PATH", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks struct tags plus the cross-field rules the tags cannot
// express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.Store.Backend {
	case StoreBackendFile:
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the file backend")
		}
	case StoreBackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	}

	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogString returns a safe representation of the store target for logging
// (no credentials).
func (c *StoreConfig) LogString() string {
	if c.Backend == StoreBackendFile {
		return "file=" + c.Path
	}
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
}

// Helper functions

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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
