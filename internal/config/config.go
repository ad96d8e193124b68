package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every runtime setting. It is loaded once in main and
// injected into constructors instead of being read from the environment
// at point of use.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	JWTSecret           string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	RotateRefreshTokens bool

	RateLimitUserPerHour int
	RateLimitAnonPerHour int
	RateLimitWindow      time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "3000"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		AccessTokenTTL:       time.Duration(getEnvInt("JWT_ACCESS_TTL_MIN", 15)) * time.Minute,
		RefreshTokenTTL:      time.Duration(getEnvInt("JWT_REFRESH_TTL_MIN", 10080)) * time.Minute,
		RotateRefreshTokens:  getEnvBool("JWT_ROTATE_REFRESH", true),
		RateLimitUserPerHour: getEnvInt("RATE_LIMIT_USER_HOUR", 100),
		RateLimitAnonPerHour: getEnvInt("RATE_LIMIT_ANON_HOUR", 20),
		RateLimitWindow:      time.Hour,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)

	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)

	if err != nil {
		return fallback
	}

	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)

	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)

	if err != nil {
		return fallback
	}

	return parsed
}
