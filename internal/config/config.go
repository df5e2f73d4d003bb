package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	KYC       KYCConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig is only used when RateLimit.Backend is "redis".
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig holds remote media storage settings
type StorageConfig struct {
	Driver     string // "minio" or "s3"
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	Region     string
	UseSSL     bool
	PublicURL  string // base used for document URLs; derived from endpoint when empty
	PresignTTL time.Duration
}

// AuthConfig holds the gate secrets and token settings
type AuthConfig struct {
	AdminPassword     string
	KYCReviewPassword string
	JWTSecret         string
	TokenTTL          time.Duration
	AdminAPIKey       string
}

// Policy describes one attempt limiter namespace.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// RateLimitConfig holds limiter settings
type RateLimitConfig struct {
	Backend       string // "memory" or "redis"
	Gate          Policy
	Intake        Policy
	SweepInterval time.Duration
}

// KYCConfig holds intake settings
type KYCConfig struct {
	MaxFileSize       int64 // per document, in bytes
	MaxUploadSize     int64 // whole multipart body, in bytes
	FormVersion       string
	ExpiryWarningDays int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "consultancy_portal"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "minio"),
			Endpoint:   getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey:  getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretKey:  getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			Bucket:     getEnv("STORAGE_BUCKET", "kyc-documents"),
			Region:     getEnv("STORAGE_REGION", "us-east-1"),
			UseSSL:     getBoolEnv("STORAGE_USE_SSL", false),
			PublicURL:  getEnv("STORAGE_PUBLIC_URL", ""),
			PresignTTL: getDurationEnv("STORAGE_PRESIGN_TTL", 15*time.Minute),
		},
		Auth: AuthConfig{
			AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
			KYCReviewPassword: os.Getenv("KYC_REVIEW_PASSWORD"),
			JWTSecret:         os.Getenv("JWT_SECRET"),
			TokenTTL:          getDurationEnv("TOKEN_TTL", 8*time.Hour),
			AdminAPIKey:       os.Getenv("ADMIN_API_KEY"),
		},
		RateLimit: RateLimitConfig{
			Backend: getEnv("RATE_LIMIT_BACKEND", "memory"),
			Gate: Policy{
				MaxAttempts: getIntEnv("GATE_MAX_ATTEMPTS", 5),
				Window:      getDurationEnv("GATE_WINDOW", 15*time.Minute),
				Lockout:     getDurationEnv("GATE_LOCKOUT", 15*time.Minute),
			},
			Intake: Policy{
				MaxAttempts: getIntEnv("INTAKE_MAX_SUBMISSIONS", 5),
				Window:      getDurationEnv("INTAKE_WINDOW", time.Hour),
				Lockout:     getDurationEnv("INTAKE_LOCKOUT", time.Hour),
			},
			SweepInterval: getDurationEnv("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		},
		KYC: KYCConfig{
			MaxFileSize:       getInt64Env("KYC_MAX_FILE_SIZE", 10*1024*1024), // 10MB
			MaxUploadSize:     getInt64Env("MAX_UPLOAD_SIZE", 32*1024*1024),   // 32MB
			FormVersion:       getEnv("KYC_FORM_VERSION", "2.0"),
			ExpiryWarningDays: getIntEnv("KYC_EXPIRY_WARNING_DAYS", 30),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Auth.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required")
	}
	if c.Auth.KYCReviewPassword == "" {
		return fmt.Errorf("KYC_REVIEW_PASSWORD is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Storage.Driver != "minio" && c.Storage.Driver != "s3" {
		return fmt.Errorf("STORAGE_DRIVER must be one of: minio, s3")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("STORAGE_BUCKET is required")
	}
	if c.RateLimit.Backend != "memory" && c.RateLimit.Backend != "redis" {
		return fmt.Errorf("RATE_LIMIT_BACKEND must be one of: memory, redis")
	}
	if c.RateLimit.Gate.MaxAttempts < 1 || c.RateLimit.Intake.MaxAttempts < 1 {
		return fmt.Errorf("rate limit max attempts must be positive")
	}
	if c.KYC.MaxFileSize <= 0 || c.KYC.MaxUploadSize < c.KYC.MaxFileSize {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be at least KYC_MAX_FILE_SIZE")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
