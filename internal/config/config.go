// Package config loads process settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects where auth and rows live.
const (
	BackendMemory = "memory"
	BackendHosted = "hosted"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Addr           string
	WebDir         string
	Env            string
	LogLevel       string
	SiteURL        string
	Backend        string
	GoTrueURL      string
	AnonKey        string
	DatabaseURL    string
	RedisURL       string
	MongoURI       string
	MongoDB        string
	AllowedOrigins []string
	SessionTTL     time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	AppleClientID      string
	AppleClientSecret  string
}

// Load reads .env when present, then the environment, and validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}

	c := &Config{
		Addr:           getEnv("ADDR", ":8080"),
		WebDir:         getEnv("WEB_DIR", "web"),
		Env:            strings.ToLower(getEnv("APP_ENV", "development")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SiteURL:        strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/"),
		Backend:        strings.ToLower(getEnv("BACKEND", BackendMemory)),
		GoTrueURL:      getEnv("GOTRUE_URL", ""),
		AnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		MongoURI:       getEnv("MONGODB_URI", ""),
		MongoDB:        getEnv("MONGODB_DB", "technowear"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		SessionTTL:     ttl,

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		AppleClientID:      getEnv("APPLE_CLIENT_ID", ""),
		AppleClientSecret:  getEnv("APPLE_CLIENT_SECRET", ""),
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{c.SiteURL}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	switch c.Backend {
	case BackendMemory:
	case BackendHosted:
		if c.GoTrueURL == "" || c.AnonKey == "" {
			return errors.New("GOTRUE_URL and SUPABASE_ANON_KEY are required when BACKEND=hosted")
		}
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when BACKEND=hosted")
		}
	default:
		return errors.New("BACKEND must be one of: memory, hosted")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.Env == "production" && !strings.HasPrefix(c.SiteURL, "https://") {
		return errors.New("SITE_URL must use https in production")
	}
	return nil
}

// Production reports whether the server runs in production.
func (c *Config) Production() bool { return c.Env == "production" }

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
