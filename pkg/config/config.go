// Package config reads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings every service in the repo shares.
type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret []byte

	AuthHTTPURL string

	KafkaBrokers []string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", ""),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: env("DATABASE_URL"),

		JWTAccessSecret: []byte(env("JWT_SECRET")),

		AuthHTTPURL: env("AUTH_URL"),

		KafkaBrokers: CSV(env("KAFKA_BROKERS")),
	}
}

// Check reports every required shared setting that is missing.
func (c Config) Check() *Check {
	return new(Check).
		NonEmpty("DATABASE_URL", c.DatabaseURL).
		NonEmptyBytes("JWT_SECRET", c.JWTAccessSecret).
		Positive("SERVER_PORT", c.ServerPort)
}

// env returns the trimmed value of key; blank counts as unset.
func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// CSV splits a comma separated list and drops blank entries.
func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := env(key); v != "" {
		return v
	}
	return def
}

// EnvIntDefault falls back to def when key is unset or not an integer.
func EnvIntDefault(key string, def int) int {
	if v := env(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// EnvDurationDefault accepts Go duration syntax ("15s", "1h"); bad or
// non-positive values fall back to def.
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	if v := env(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
