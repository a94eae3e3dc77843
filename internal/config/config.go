package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable the service reads at boot. Values come from
// environment variables (HTTP_ADDR, DATABASE_DSN, ...) with an optional
// config.yaml overlay for local development.
type Config struct {
	HTTPAddr            string        `mapstructure:"http_addr"`
	DatabaseDSN         string        `mapstructure:"database_dsn"`
	RedisAddr           string        `mapstructure:"redis_addr"`
	ClassifierAddr      string        `mapstructure:"classifier_addr"`
	ClassifierTimeout   time.Duration `mapstructure:"classifier_timeout"`
	JWTSecret           string        `mapstructure:"jwt_secret"`
	JWTAudience         string        `mapstructure:"jwt_audience"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	MaxAlternatives     int           `mapstructure:"max_alternatives"`
	ShutdownTimeout     time.Duration `mapstructure:"shutdown_timeout"`
}

// Load reads configuration from the environment and an optional config file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("database_dsn", "host=postgres user=postgres password=postgres dbname=allergenscan port=5432 sslmode=disable")
	v.SetDefault("redis_addr", "redis:6379")
	v.SetDefault("classifier_addr", "classifier:50051")
	v.SetDefault("classifier_timeout", 30*time.Second)
	v.SetDefault("jwt_secret", "dev-secret")
	v.SetDefault("jwt_audience", "")
	v.SetDefault("confidence_threshold", 0.40)
	v.SetDefault("max_alternatives", 3)
	v.SetDefault("shutdown_timeout", 15*time.Second)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("confidence_threshold %v out of range [0,1]", cfg.ConfidenceThreshold)
	}
	if cfg.MaxAlternatives < 0 {
		return nil, fmt.Errorf("max_alternatives %d must not be negative", cfg.MaxAlternatives)
	}
	return &cfg, nil
}
