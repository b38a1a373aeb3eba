package config

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	DBDriver    string `env:"DB_DRIVER, default=postgres"`
	DatabaseURL string `env:"DATABASE_URL, required"`

	ServerPort string `env:"SERVER_PORT, default=8080"`

	RedisURL string `env:"REDIS_URL, default=redis://localhost:6379/0"`

	JWTSecret     string `env:"JWT_SECRET, required"`
	SessionMaxAge int    `env:"SESSION_MAX_AGE, default=2592000"`
	CookieSecure  bool   `env:"COOKIE_SECURE, default=true"`

	OAuthRedirectBaseURL string `env:"OAUTH_REDIRECT_BASE_URL, default=http://localhost:8080"`
	GoogleClientID       string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"GOOGLE_CLIENT_SECRET"`
	GitHubClientID       string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret   string `env:"GITHUB_CLIENT_SECRET"`

	FrontendURL        string `env:"FRONTEND_URL, default=http://localhost:3000"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`

	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicURL       string `env:"R2_PUBLIC_URL"`

	LogLevel string `env:"LOG_LEVEL, default=info"`
	LogFile  string `env:"LOG_FILE"`

	WorkerCount int `env:"WORKER_COUNT, default=2"`
}

// LoadConfig reads an optional .env file and decodes the environment into Config.
func LoadConfig(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	switch c.DBDriver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.SessionMaxAge <= 0 {
		c.SessionMaxAge = 2592000
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 2
	}
	return nil
}

// AllowedOrigins returns the CORS origins; the frontend URL is always allowed.
func (c *Config) AllowedOrigins() []string {
	origins := []string{c.FrontendURL}
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" && o != c.FrontendURL {
			origins = append(origins, o)
		}
	}
	return origins
}

// MediaEnabled reports whether object storage is fully configured.
func (c *Config) MediaEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}
