package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Logging   LoggingConfig
	Realtime  RealtimeConfig
	Push      PushConfig
	Lifecycle LifecycleConfig
	Worker    WorkerConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
	RateLimitRPS    float64
	RateLimitBurst  int
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains token verification configuration
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled       bool
	Host          string
	Port          int
	Password      string
	DB            int
	TokenCacheTTL time.Duration
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// RealtimeConfig tunes realtime sessions
type RealtimeConfig struct {
	SubscriberBuffer int
	PingInterval     time.Duration
	PongWait         time.Duration
	WriteTimeout     time.Duration
	MaxMessageSize   int64
}

// PushConfig configures the push notification dispatcher
type PushConfig struct {
	Endpoint   string
	ServerKey  string
	QueueSize  int
	Workers    int
	Timeout    time.Duration
	AndroidTag string
}

// LifecycleConfig controls alert lifecycle policy
type LifecycleConfig struct {
	ArchiveCancelled bool
}

// WorkerConfig configures background jobs
type WorkerConfig struct {
	ReconcileSchedule string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "emsdispatch"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./emsdispatch.db"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", ""),
		},
		Redis: RedisConfig{
			Enabled:       getEnvAsBool("REDIS_ENABLED", false),
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnvAsInt("REDIS_PORT", 6379),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvAsInt("REDIS_DB", 0),
			TokenCacheTTL: getEnvAsDuration("REDIS_TOKEN_CACHE_TTL", time.Minute),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 14),
		},
		Realtime: RealtimeConfig{
			SubscriberBuffer: getEnvAsInt("REALTIME_SUBSCRIBER_BUFFER", 64),
			PingInterval:     getEnvAsDuration("REALTIME_PING_INTERVAL", 25*time.Second),
			PongWait:         getEnvAsDuration("REALTIME_PONG_WAIT", 60*time.Second),
			WriteTimeout:     getEnvAsDuration("REALTIME_WRITE_TIMEOUT", 10*time.Second),
			MaxMessageSize:   int64(getEnvAsInt("REALTIME_MAX_MESSAGE_SIZE", 4096)),
		},
		Push: PushConfig{
			Endpoint:   getEnv("PUSH_ENDPOINT", ""),
			ServerKey:  getEnv("PUSH_SERVER_KEY", ""),
			QueueSize:  getEnvAsInt("PUSH_QUEUE_SIZE", 256),
			Workers:    getEnvAsInt("PUSH_WORKERS", 2),
			Timeout:    getEnvAsDuration("PUSH_TIMEOUT", 10*time.Second),
			AndroidTag: getEnv("PUSH_ANDROID_CHANNEL", "ems_alerts"),
		},
		Lifecycle: LifecycleConfig{
			ArchiveCancelled: getEnvAsBool("LIFECYCLE_ARCHIVE_CANCELLED", false),
		},
		Worker: WorkerConfig{
			ReconcileSchedule: getEnv("WORKER_RECONCILE_SCHEDULE", "@every 1m"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Push.QueueSize < 1 || c.Push.Workers < 1 {
		return fmt.Errorf("push queue size and workers must be positive")
	}

	if c.Push.Endpoint != "" && c.Push.ServerKey == "" {
		return fmt.Errorf("PUSH_SERVER_KEY must be set when PUSH_ENDPOINT is configured")
	}

	if c.Realtime.SubscriberBuffer < 1 {
		return fmt.Errorf("invalid realtime subscriber buffer: %d", c.Realtime.SubscriberBuffer)
	}

	if c.Realtime.PingInterval >= c.Realtime.PongWait {
		return fmt.Errorf("REALTIME_PING_INTERVAL must be shorter than REALTIME_PONG_WAIT")
	}

	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
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
