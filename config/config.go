// Package config reads server settings from the environment and builds the
// shared logger.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/rent-status/rent"
)

// Config holds environment-driven settings for the HTTP server and engine.
type Config struct {
	Port            int
	DBPath          string
	LogLevel        string
	LogFormat       string
	AllowedOrigins  []string
	CreditPolicy    rent.CreditPolicy
	ShutdownTimeout time.Duration
	DigestInterval  time.Duration
}

// Load reads the given .env files (default ".env") into the environment and
// then builds the config. Missing files are ignored; variables already set in
// the environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the config from the current environment only.
func FromEnv() (Config, error) {
	policy, err := rent.ParseCreditPolicy(getenv("RENT_CREDIT_POLICY", string(rent.CreditSurface)))
	if err != nil {
		return Config{}, fmt.Errorf("RENT_CREDIT_POLICY: %w", err)
	}

	return Config{
		Port:            getInt("PORT", 8080),
		DBPath:          getenv("DB_PATH", "rent.db"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "json"),
		AllowedOrigins:  getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		CreditPolicy:    policy,
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		DigestInterval:  getDuration("DIGEST_INTERVAL", time.Hour),
	}, nil
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getList splits a comma-separated variable, dropping blank entries.
func getList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
