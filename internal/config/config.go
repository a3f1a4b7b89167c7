package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	OracleModel  string `mapstructure:"ORACLE_MODEL"`

	CompareWorkers  int `mapstructure:"COMPARE_WORKERS"`
	MaxRetries      int `mapstructure:"MAX_RETRIES"`
	RetryBackoff    int `mapstructure:"RETRY_BACKOFF"`     // seconds
	PageLoadTimeout int `mapstructure:"PAGE_LOAD_TIMEOUT"` // seconds
	OracleTimeout   int `mapstructure:"ORACLE_TIMEOUT"`    // seconds

	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	CleanCacheDays int    `mapstructure:"CLEAN_CACHE_DAYS"`
	PostgresURL    string `mapstructure:"POSTGRES_URL"`
	MetricsAddr    string `mapstructure:"METRICS_ADDR"`
}

// Load reads configuration from a .env file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = viper.ReadInConfig()

	// Empty defaults keep env-only keys visible to Unmarshal.
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("POSTGRES_URL", "")
	viper.SetDefault("METRICS_ADDR", "")
	viper.SetDefault("ORACLE_MODEL", "gemini-3-flash-preview")
	viper.SetDefault("COMPARE_WORKERS", 4)
	viper.SetDefault("MAX_RETRIES", 2)
	viper.SetDefault("RETRY_BACKOFF", 5)
	viper.SetDefault("PAGE_LOAD_TIMEOUT", 30)
	viper.SetDefault("ORACLE_TIMEOUT", 60)
	viper.SetDefault("CLEAN_CACHE_DAYS", 2)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
