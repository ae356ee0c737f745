package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Store     StoreConfig     `mapstructure:"store"`
	Gumloop   GumloopConfig   `mapstructure:"gumloop"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Expiry    ExpiryConfig    `mapstructure:"expiry"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	Type        string `mapstructure:"type"` // "memory", "postgres" or "bolt"
	DatabaseURL string `mapstructure:"database_url"`
	BoltPath    string `mapstructure:"bolt_path"`
}

// GumloopConfig holds the AI pipeline account and pipeline ids
type GumloopConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	UserID            string        `mapstructure:"user_id"`
	SuggestPipelineID string        `mapstructure:"suggest_pipeline_id"`
	SearchPipelineID  string        `mapstructure:"search_pipeline_id"`
	ImportPipelineID  string        `mapstructure:"import_pipeline_id"`
	ReceiptPipelineID string        `mapstructure:"receipt_pipeline_id"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	MaxWait           time.Duration `mapstructure:"max_wait"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// MatchingConfig selects the ingredient name matcher
type MatchingConfig struct {
	Strategy           string `mapstructure:"strategy"` // "substring" or "token"
	EnableFuzzy        bool   `mapstructure:"enable_fuzzy"`
	FuzzyEditDistance  int    `mapstructure:"fuzzy_edit_distance"`
	EnableDebugLogging bool   `mapstructure:"enable_debug_logging"`
}

// ExpiryConfig holds the expiring-soon window
type ExpiryConfig struct {
	WindowDays int `mapstructure:"window_days"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP    int `mapstructure:"per_ip"`   // requests per minute
	Upstream int `mapstructure:"upstream"` // pipeline requests per hour
}

// LogConfig holds logger settings
type LogConfig struct {
	Mode       string `mapstructure:"mode"` // "production" or "development"
	Level      string `mapstructure:"level"`
	FileEnable bool   `mapstructure:"file_enable"`
	Filename   string `mapstructure:"filename"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pantrypal/")

	// Environment variable settings: PANTRY_SERVER_PORT -> server.port
	v.SetEnvPrefix("PANTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory when present.
// Variables already set in the process environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("auth.jwt_secret", "")

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.bolt_path", "pantrypal.db")

	// Gumloop defaults
	v.SetDefault("gumloop.api_key", "")
	v.SetDefault("gumloop.base_url", "https://api.gumloop.com")
	v.SetDefault("gumloop.user_id", "")
	v.SetDefault("gumloop.suggest_pipeline_id", "")
	v.SetDefault("gumloop.search_pipeline_id", "")
	v.SetDefault("gumloop.import_pipeline_id", "")
	v.SetDefault("gumloop.receipt_pipeline_id", "")
	v.SetDefault("gumloop.poll_interval", "2s")
	v.SetDefault("gumloop.max_wait", "300s")

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// Matching defaults
	v.SetDefault("matching.strategy", "substring")
	v.SetDefault("matching.enable_fuzzy", false)
	v.SetDefault("matching.fuzzy_edit_distance", 1)
	v.SetDefault("matching.enable_debug_logging", false)

	v.SetDefault("expiry.window_days", 3)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.upstream", 1000)

	// Log defaults
	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file_enable", false)
	v.SetDefault("log.filename", "logs/pantrypal.log")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required (set PANTRY_AUTH_JWT_SECRET)")
	}

	switch config.Store.Type {
	case "memory":
	case "postgres":
		if config.Store.DatabaseURL == "" {
			return fmt.Errorf("database URL is required when store type is 'postgres'")
		}
	case "bolt":
		if config.Store.BoltPath == "" {
			return fmt.Errorf("bolt path is required when store type is 'bolt'")
		}
	default:
		return fmt.Errorf("store type must be 'memory', 'postgres' or 'bolt', got: %s", config.Store.Type)
	}

	if config.Matching.Strategy != "substring" && config.Matching.Strategy != "token" {
		return fmt.Errorf("matching strategy must be 'substring' or 'token', got: %s", config.Matching.Strategy)
	}

	if config.Expiry.WindowDays < 0 {
		return fmt.Errorf("expiry window must not be negative, got: %d", config.Expiry.WindowDays)
	}

	if config.Log.FileEnable && config.Log.Filename == "" {
		return fmt.Errorf("log filename is required when file logging is enabled")
	}

	return nil
}
