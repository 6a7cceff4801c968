package config

import (
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	HTTPPort    string `envconfig:"HTTP_PORT"    default:":8081"`
	LogLevel    string `envconfig:"LOG_LEVEL"    default:"info"`

	// Redis caching of resolved configurations is off when RedisAddr is empty.
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB"         default:"0"`
	ConfigCacheTTL time.Duration `envconfig:"CONFIG_CACHE_TTL" default:"5m"`

	// bcrypt hash of the admin bearer token; empty disables config writes.
	AdminTokenHash string `envconfig:"ADMIN_TOKEN_HASH"`
}

var (
	config Config
	once   sync.Once
)

func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		cfg, err := Process()
		if err != nil {
			logger.Fatalf("Failed to process configuration from environment variables: %v", err)
		}
		config = *cfg

		logger.Infof("Configuration loaded: HTTP Port=%s, LogLevel=%s", config.HTTPPort, config.LogLevel)
		if config.RedisAddr != "" {
			logger.Infof("Configuration loaded: config cache at %s (TTL %s)", config.RedisAddr, config.ConfigCacheTTL)
		}
		if config.AdminTokenHash == "" {
			logger.Warn("Configuration loaded: ADMIN_TOKEN_HASH is not set, config writes are disabled")
		}
	})
	return &config
}

// Process reads the configuration from the environment only.
func Process() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
