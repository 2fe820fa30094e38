package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the core runtime configuration.  Each field corresponds to
// an environment variable.  Concern-specific settings (Redis, rate limit,
// cache, SMTP, broker, CMS, pricing) have their own loaders in this
// package so they can be enabled independently.
type Config struct {
	Env            string         // application environment (e.g. "dev", "prod")
	Port           string         // HTTP port to listen on
	LogLevel       string         // zerolog level name
	Location       *time.Location // time zone used for "today" and same-day lead time
	HoldTTL        time.Duration  // lifetime of temporary holds
	HoldBackend    string         // "memory" or "redis"
	AdminJWTSecret string         // enables JWT protection of /admin when set
	AdminTokenTTL  time.Duration  // lifetime of tokens minted by cmd/admintoken
	PublicBaseURL  string         // base URL of the public site, used in e-mails
	PhoneRegion    string         // default region of applicant phone numbers
}

// LoadDotEnv loads a .env file from the working directory when one
// exists.  Variables already set in the environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads the core configuration.  APP_PORT defaults to 8080; an
// unknown APP_TIMEZONE or HOLD_BACKEND is an error.
func Load() (Config, error) {
	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "8080"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		HoldTTL:        envDur("HOLD_TTL", 15*time.Minute),
		HoldBackend:    envStr("HOLD_BACKEND", "memory"),
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
		AdminTokenTTL:  envDur("ADMIN_TOKEN_TTL", 12*time.Hour),
		PublicBaseURL:  envStr("PUBLIC_BASE_URL", "http://localhost:3000"),
		PhoneRegion:    strings.ToUpper(envStr("PHONE_REGION", "US")),
	}

	loc, err := time.LoadLocation(envStr("APP_TIMEZONE", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	switch cfg.HoldBackend {
	case "memory", "redis":
	default:
		return Config{}, fmt.Errorf("invalid HOLD_BACKEND %q: want memory or redis", cfg.HoldBackend)
	}
	if cfg.HoldTTL <= 0 {
		return Config{}, fmt.Errorf("invalid HOLD_TTL %s", cfg.HoldTTL)
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool { return c.Env == "prod" || c.Env == "production" }
