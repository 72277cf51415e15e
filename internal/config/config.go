package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Database
	DatabaseURL string

	// Redis (request lock store)
	RedisURL string

	// OIDC
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// Session
	SessionSecret string // Used for signing cookies (min 32 chars)

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Info request workflow
	RequestExpiryWindow time.Duration // How long a pending request stays open (default 24h)
	RequestCooldown     time.Duration // Wait before re-requesting the same target after deny/expiry (0 = disabled)
	SweepInterval       time.Duration // How often the expiry sweeper runs
	TokenTTL            time.Duration // Share token lifetime (default 24h)
	SignedURLTTL        time.Duration // Lifetime of signed photo URLs resolved at redemption
	UploadURLTTL        time.Duration // Lifetime of presigned upload URLs
	JobToken            string        // Shared secret for scheduler-triggered job endpoints

	// Object storage
	S3Bucket   string
	S3Region   string
	S3Endpoint string // Optional, for S3-compatible stores

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // "none", "tls", "starttls"

	// Site branding (used in email templates)
	SiteTitle string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/attayyibun?sslmode=disable"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),

		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", "http://localhost:3000/auth/callback"),

		SessionSecret: getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		CORSOrigins:   getEnv("CORS_ORIGINS", ""),

		RequestExpiryWindow: getDurationEnv("REQUEST_EXPIRY_WINDOW", 24*time.Hour),
		RequestCooldown:     getDurationEnv("REQUEST_COOLDOWN", 0),
		SweepInterval:       getDurationEnv("SWEEP_INTERVAL", 15*time.Minute),
		TokenTTL:            getDurationEnv("TOKEN_TTL", 24*time.Hour),
		SignedURLTTL:        getDurationEnv("SIGNED_URL_TTL", time.Hour),
		UploadURLTTL:        getDurationEnv("UPLOAD_URL_TTL", 5*time.Minute),
		JobToken:            getEnv("JOB_TOKEN", ""),

		S3Bucket:   getEnv("S3_BUCKET", "at-tayyibun-photos"),
		S3Region:   getEnv("S3_REGION", "us-east-1"),
		S3Endpoint: getEnv("S3_ENDPOINT", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", ""),
		SMTPTLS:      getEnv("SMTP_TLS", "starttls"),

		SiteTitle: getEnv("SITE_TITLE", "At-Tayyibun"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true if SMTP is configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}
