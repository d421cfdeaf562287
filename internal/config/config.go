package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	DBPath     string
	TokenTTL   time.Duration
	RateLimits RateLimits
}

type RateLimits struct {
	LoginPerMinute int
}

func Load() Config {
	addr := envString("POSTSD_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	return Config{
		Addr:     addr,
		DBPath:   envString("POSTSD_DB", "postsd.db"),
		TokenTTL: envDuration("POSTSD_TOKEN_TTL", 24*time.Hour),
		RateLimits: RateLimits{
			LoginPerMinute: envInt("POSTSD_RL_LOGIN_PER_MIN", 10),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
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
