// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	AppEnv            string
	AppPort           string
	DatabaseDriver    string
	DatabaseDSN       string
	JWTSecret         string
	JWTTTL            time.Duration
	RabbitMQURL       string
	RedisAddr         string
	RedisPassword     string
	AnalyticsCacheTTL time.Duration
	ShutdownTimeout   time.Duration
}

const devJWTSecret = "dev-secret-change-me"

// Load reads an optional .env file, then the process environment, applying defaults.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=storefront port=5432 sslmode=disable")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("ANALYTICS_CACHE_TTL", "5m")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.AutomaticEnv()

	cfg := &Config{
		AppEnv:            v.GetString("APP_ENV"),
		AppPort:           v.GetString("APP_PORT"),
		DatabaseDriver:    v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTTTL:            v.GetDuration("JWT_TTL"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		AnalyticsCacheTTL: v.GetDuration("ANALYTICS_CACHE_TTL"),
		ShutdownTimeout:   v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return errors.New("DATABASE_DRIVER must be postgres or sqlite")
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}
