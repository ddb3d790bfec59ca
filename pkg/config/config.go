package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often a pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Auth AuthConfig

	// CommunityTimezone is the IANA zone reservation dates and times are interpreted in.
	CommunityTimezone string

	// AllowedOrigins is a comma-separated allowlist of browser origins for the resident/staff apps.
	AllowedOrigins []string

	// TxMaxAttempts bounds transparent retries of serialization failures and deadlocks.
	TxMaxAttempts int

	location *time.Location
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	cfg := Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "amenitybook"),
			User:     env("DB_USER", "amenitybook"),
			Password: env("DB_PASSWORD", "amenitybook"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
			Issuer:    env("AUTH_JWT_ISSUER", "amenitybook"),
			Audience:  os.Getenv("AUTH_JWT_AUDIENCE"),
		},
		CommunityTimezone: env("COMMUNITY_TIMEZONE", "America/New_York"),
		AllowedOrigins:    envList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),
		TxMaxAttempts:     envInt("TX_MAX_ATTEMPTS", 3),
	}

	loc, err := time.LoadLocation(cfg.CommunityTimezone)
	if err != nil {
		log.Printf("config: unknown COMMUNITY_TIMEZONE=%q, falling back to UTC: %v", cfg.CommunityTimezone, err)
		loc = time.UTC
	}
	cfg.location = loc

	return cfg
}

// Location returns the community time zone. A zero Config reports UTC.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// WithLocation returns a copy of c using loc as the community time zone.
func (c Config) WithLocation(loc *time.Location) Config {
	c.location = loc
	if loc != nil {
		c.CommunityTimezone = loc.String()
	}
	return c
}

func (c Config) IsProd() bool {
	return c.AppEnv == "prod"
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
