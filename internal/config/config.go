package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	AdminUser     string
	AdminPassword string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type Config struct {
	Env                string
	Port               int
	Database           DatabaseConfig
	RedisURL           string
	AccessTokenSecret  string
	RefreshTokenSecret string
	AllowedOrigins     []string
	Google             GoogleConfig
	RateLimitPerMinute int
	JobsEnabled        bool
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	cfg := &Config{
		Env:                getenv("APP_ENV", "development"),
		RedisURL:           getenv("REDIS_URL", "redis://localhost:6379/0"),
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AllowedOrigins:     splitList(getenv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
	}

	port, err := strconv.Atoi(getenv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("PORT must be a number: %w", err)
	}
	cfg.Port = port

	limit, err := strconv.Atoi(getenv("RATE_LIMIT_PER_MINUTE", "300"))
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be a positive number")
	}
	cfg.RateLimitPerMinute = limit

	jobs, err := strconv.ParseBool(getenv("JOBS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("JOBS_ENABLED must be a boolean: %w", err)
	}
	cfg.JobsEnabled = jobs

	db := DatabaseConfig{
		Host:          os.Getenv("DB_HOST"),
		Port:          getenv("DB_PORT", "5432"),
		User:          os.Getenv("DB_USERNAME"),
		Password:      os.Getenv("DB_PASSWORD"),
		Name:          os.Getenv("DB_DATABASE"),
		AdminUser:     os.Getenv("DB_ADMIN_USER"),
		AdminPassword: os.Getenv("DB_ADMIN_PASSWORD"),
	}
	required := map[string]string{
		"DB_HOST":              db.Host,
		"DB_USERNAME":          db.User,
		"DB_PASSWORD":          db.Password,
		"DB_DATABASE":          db.Name,
		"ACCESS_TOKEN_SECRET":  cfg.AccessTokenSecret,
		"REFRESH_TOKEN_SECRET": cfg.RefreshTokenSecret,
	}
	for _, key := range []string{"DB_HOST", "DB_USERNAME", "DB_PASSWORD", "DB_DATABASE", "ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET"} {
		if required[key] == "" {
			return nil, fmt.Errorf("%s environment variable is required", key)
		}
	}
	cfg.Database = db

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSuffix(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
