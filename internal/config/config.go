// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBDriver         string `mapstructure:"DB_DRIVER"`
	DBHost           string `mapstructure:"DB_HOST"`
	DBPort           string `mapstructure:"DB_PORT"`
	DBUser           string `mapstructure:"DB_USER"`
	DBPassword       string `mapstructure:"DB_PASSWORD"`
	DBName           string `mapstructure:"DB_NAME"`
	DBSSLMode        string `mapstructure:"DB_SSLMODE"`
	DBPath           string `mapstructure:"DB_PATH"`
	DBSchemaMode     string `mapstructure:"DB_SCHEMA_MODE"`
	DBMaxOpenConns   int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns   int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBSlowQueryMS    int    `mapstructure:"DB_SLOW_QUERY_MS"`
	DBConnMaxLifeMin int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL            string `mapstructure:"REDIS_URL"`
	CachePostTTLSeconds int    `mapstructure:"CACHE_POST_TTL_SECONDS"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTIssuer   string `mapstructure:"JWT_ISSUER"`
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`

	BlobDir         string `mapstructure:"BLOB_DIR"`
	BlobBaseURL     string `mapstructure:"BLOB_BASE_URL"`
	BlobMaxUploadMB int    `mapstructure:"BLOB_MAX_UPLOAD_MB"`

	PostsPageSize    int `mapstructure:"POSTS_PAGE_SIZE"`
	SearchPageSize   int `mapstructure:"SEARCH_PAGE_SIZE"`
	CommentsPageSize int `mapstructure:"COMMENTS_PAGE_SIZE"`
	MaxPageSize      int `mapstructure:"MAX_PAGE_SIZE"`

	RateLimitLikesPerMinute int `mapstructure:"RATE_LIMIT_LIKES_PER_MINUTE"`

	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogFile         string `mapstructure:"LOG_FILE"`
	LogMaxSizeMB    int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups   int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays   int    `mapstructure:"LOG_MAX_AGE_DAYS"`
	TracingEnabled  bool   `mapstructure:"TRACING_ENABLED"`
	TracingExporter string `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string `mapstructure:"OTLP_ENDPOINT"`

	TracingSampler float64 `mapstructure:"TRACING_SAMPLER_RATIO"`

	DevAdminEmail    string `mapstructure:"DEV_ADMIN_EMAIL"`
	DevAdminPassword string `mapstructure:"DEV_ADMIN_PASSWORD"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A local .env never overrides variables already set in the process.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; env vars and defaults are enough to boot.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "inkwell")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_PATH", "inkwell.db")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_SLOW_QUERY_MS", 200)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("CACHE_POST_TTL_SECONDS", 60)

	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "inkwell-auth")
	viper.SetDefault("JWT_AUDIENCE", "inkwell-api")

	viper.SetDefault("BLOB_DIR", "./uploads")
	viper.SetDefault("BLOB_BASE_URL", "/uploads")
	viper.SetDefault("BLOB_MAX_UPLOAD_MB", 10)

	viper.SetDefault("POSTS_PAGE_SIZE", 9)
	viper.SetDefault("SEARCH_PAGE_SIZE", 10)
	viper.SetDefault("COMMENTS_PAGE_SIZE", 2)
	viper.SetDefault("MAX_PAGE_SIZE", 100)

	viper.SetDefault("RATE_LIMIT_LIKES_PER_MINUTE", 60)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("LOG_MAX_SIZE_MB", 100)
	viper.SetDefault("LOG_MAX_BACKUPS", 5)
	viper.SetDefault("LOG_MAX_AGE_DAYS", 28)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	viper.SetDefault("DEV_ADMIN_EMAIL", "")
	viper.SetDefault("DEV_ADMIN_PASSWORD", "")
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// IsProduction reports whether the app runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// PostCacheTTL is the cache window for post detail reads.
func (c *Config) PostCacheTTL() time.Duration {
	return time.Duration(c.CachePostTTLSeconds) * time.Second
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be one of postgres, mysql, sqlite (got %q)", c.DBDriver)
	}
	switch c.DBSchemaMode {
	case "hybrid", "sql", "auto":
	default:
		return fmt.Errorf("DB_SCHEMA_MODE must be one of hybrid, sql, auto (got %q)", c.DBSchemaMode)
	}

	if c.PostsPageSize <= 0 || c.SearchPageSize <= 0 || c.CommentsPageSize <= 0 {
		return errors.New("page sizes must be positive")
	}
	if c.MaxPageSize < c.PostsPageSize || c.MaxPageSize < c.SearchPageSize || c.MaxPageSize < c.CommentsPageSize {
		return errors.New("MAX_PAGE_SIZE must not be smaller than any default page size")
	}
	if c.BlobMaxUploadMB <= 0 {
		return errors.New("BLOB_MAX_UPLOAD_MB must be positive")
	}

	// Strict checks for production
	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver != "sqlite" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver == "postgres" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
