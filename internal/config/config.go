package config

import (
	"os"
	"time"
)

type Config struct {
	Addr      string
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration
}

func Load() Config {
	addr := envString("MINIPRESS_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	return Config{
		Addr:      addr,
		DBPath:    envString("MINIPRESS_DB", "minipress.db"),
		JWTSecret: envString("MINIPRESS_JWT_SECRET", "dev-jwt-secret"),
		TokenTTL:  envDuration("MINIPRESS_TOKEN_TTL", 24*time.Hour),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
