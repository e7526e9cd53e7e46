package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Token credential formats supported by the issuer/verifier pair.
const (
	ModeJWT    = "jwt"
	ModeOpaque = "opaque"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	MongoDB   MongoDBConfig
	Token     TokenConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// MongoDBConfig is only consulted when Redis is not configured; it selects the
// fallback token store.
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type TokenConfig struct {
	// Secret is the shared HMAC signing secret. When empty an ephemeral key
	// is generated at startup.
	Secret string
	// Mode selects the credential format: "jwt" (self-contained) or "opaque".
	Mode string
	// Lifetime bounds both the embedded expiry and the store record TTL.
	Lifetime time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "auth")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("TOKEN_MODE", ModeJWT)
	// 15 days, matching the session lifetime the product expects
	viper.SetDefault("TOKEN_LIFETIME_SECONDS", 1296000)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Token: TokenConfig{
			Secret:   os.Getenv("JWT_SECRET"),
			Mode:     viper.GetString("TOKEN_MODE"),
			Lifetime: time.Duration(viper.GetInt64("TOKEN_LIFETIME_SECONDS")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	if cfg.Token.Mode != ModeJWT && cfg.Token.Mode != ModeOpaque {
		return nil, fmt.Errorf("invalid TOKEN_MODE %q (want %q or %q)", cfg.Token.Mode, ModeJWT, ModeOpaque)
	}
	if cfg.Token.Lifetime <= 0 {
		return nil, fmt.Errorf("TOKEN_LIFETIME_SECONDS must be positive")
	}

	return cfg, nil
}
