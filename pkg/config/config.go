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
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Upstream analytics API
	MetaTFT MetaTFTConfig

	// Composition being tracked
	Strategy StrategyConfig

	// Record output
	Output OutputConfig

	// Refresh schedule used by `serve`
	RefreshCron string

	// Database (optional snapshot history)
	Database DatabaseConfig

	// Redis (optional record publishing)
	Redis RedisConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// MetaTFTConfig holds the comps API endpoint configuration
type MetaTFTConfig struct {
	BaseURL string
	Queue   string // 1100 = ranked
	Timeout time.Duration
}

// StrategyConfig describes the composition to extract and how to clean its names
type StrategyConfig struct {
	CompID     string `yaml:"comp_id"`
	Name       string `yaml:"name"`
	MainCarry  string `yaml:"main_carry"`
	UnitPrefix string `yaml:"unit_prefix"`
	ItemPrefix string `yaml:"item_prefix"`

	// File is an optional YAML profile layered over the env values
	File string `yaml:"-"`
}

// OutputConfig controls where records are written
type OutputConfig struct {
	Dir string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	Enabled   bool
	RecordTTL time.Duration
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

// Enabled reports whether snapshot history is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Default strategy values (Piltover T-Hex, ranked queue)
const (
	DefaultBaseURL    = "https://api-hc.metatft.com/tft-comps-api/comps_data"
	DefaultQueue      = "1100"
	DefaultCompID     = "381014"
	DefaultCompName   = "Piltover T-Hex"
	DefaultMainCarry  = "THex"
	DefaultUnitPrefix = "TFT16_"
	DefaultItemPrefix = "TFT_Item_"
)

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		MetaTFT: MetaTFTConfig{
			BaseURL: getEnv("METATFT_BASE_URL", DefaultBaseURL),
			Queue:   getEnv("METATFT_QUEUE", DefaultQueue),
			Timeout: getEnvAsDuration("METATFT_TIMEOUT", "30s"),
		},

		Strategy: StrategyConfig{
			CompID:     getEnv("COMP_ID", DefaultCompID),
			Name:       getEnv("COMP_NAME", DefaultCompName),
			MainCarry:  getEnv("COMP_MAIN_CARRY", DefaultMainCarry),
			UnitPrefix: getEnv("COMP_UNIT_PREFIX", DefaultUnitPrefix),
			ItemPrefix: getEnv("COMP_ITEM_PREFIX", DefaultItemPrefix),
			File:       getEnv("STRATEGY_FILE", ""),
		},

		Output: OutputConfig{
			Dir: getEnv("OUTPUT_DIR", "data"),
		},

		RefreshCron: getEnv("REFRESH_CRON", "0 0 */6 * * *"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 0),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			Enabled:   getEnvAsBool("REDIS_ENABLED", false),
			RecordTTL: getEnvAsDuration("REDIS_RECORD_TTL", "24h"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if cfg.Strategy.File != "" {
		profile, err := LoadStrategyFile(cfg.Strategy.File)
		if err != nil {
			return nil, err
		}
		cfg.Strategy = cfg.Strategy.Merge(profile)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set.
// Callers that override fields after Load must call it again.
func (c *Config) Validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.MetaTFT.BaseURL == "" {
		return fmt.Errorf("METATFT_BASE_URL is required")
	}

	if c.MetaTFT.Queue == "" {
		return fmt.Errorf("METATFT_QUEUE is required")
	}

	if c.MetaTFT.Timeout <= 0 {
		return fmt.Errorf("METATFT_TIMEOUT must be positive")
	}

	if c.Strategy.CompID == "" {
		return fmt.Errorf("COMP_ID is required")
	}

	if c.Strategy.Name == "" {
		return fmt.Errorf("COMP_NAME is required")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	// Also try relative to executable
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
