package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habitcoach/internal/constants"
)

// ErrMissingSecret is returned when no JWT signing secret can be found
// in the environment or the OS keyring.
var ErrMissingSecret = errors.New("SECRET_KEY is not set and no keyring entry exists")

// Config holds all runtime configuration, loaded from environment
// variables (a .env file is picked up automatically in development).
type Config struct {
	AppEnv string
	Host   string
	Port   int
	Debug  bool

	// DatabaseURL selects the storage backend: postgres:// strings use
	// the Postgres store, everything else is treated as a SQLite path.
	DatabaseURL string

	SecretKey string

	ModelDir string
	LogDir   string

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
}

// Load builds a Config from the environment. The JWT secret falls back
// to the OS keyring when SECRET_KEY is unset, mirroring how database
// credentials are kept out of config files.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Host:        getEnv("APP_HOST", "0.0.0.0"),
		Port:        getEnvInt("APP_PORT", 8000),
		Debug:       getEnv("LOG_LEVEL", "") == "debug",
		DatabaseURL: getEnv("DATABASE_URL", "habitcoach.db"),
		ModelDir:    getEnv("ML_MODEL_DIR", "models"),
		LogDir:      getEnv("LOG_DIR", ""),
		SMTPHost:    getEnv("SMTP_HOST", ""),
		SMTPPort:    getEnvInt("SMTP_PORT", 587),
		SMTPUser:    getEnv("SMTP_USER", ""),
		SMTPPass:    getEnv("SMTP_PASSWORD", ""),
		EmailFrom:   getEnv("EMAIL_FROM", "reports@habitcoach.local"),
	}

	cfg.SecretKey = os.Getenv("SECRET_KEY")
	if cfg.SecretKey == "" {
		secret, err := keyring.Get(constants.AppName, constants.DefaultKeyringUser)
		if err != nil {
			if cfg.IsProduction() {
				return nil, ErrMissingSecret
			}
			// Development fallback so a fresh checkout runs without setup.
			secret = "dev-secret-do-not-use-in-production"
		}
		cfg.SecretKey = secret
	}

	return cfg, nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsPostgres reports whether DatabaseURL points at a Postgres server.
func (c *Config) IsPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
