package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultDotEnv = ".env"

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string        `env:"APP_NAME" envDefault:"CustomerAccounts"`
	AppEnv         string        `env:"APP_ENV" envDefault:"development"`
	Port           string        `env:"PORT" envDefault:"8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL    string        `env:"DATABASE_URL,required,notEmpty"`
	RedisURL       string        `env:"REDIS_URL"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// SessionSecret signs session tokens. There is no fallback value.
	SessionSecret string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionIssuer string        `env:"SESSION_ISSUER" envDefault:"customer-accounts"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"10m"`

	PINHashCost            int `env:"PIN_HASH_COST" envDefault:"10"`
	LoginAttemptsPerMinute int `env:"LOGIN_ATTEMPTS_PER_MINUTE" envDefault:"5"`
}

// Load reads an optional .env file and then populates a Config from the environment.
// Variables already present in the environment win over the .env file.
func Load() (Config, error) {
	if err := godotenv.Load(defaultDotEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", defaultDotEnv, err)
	}
	return Parse()
}

// Parse populates a Config from the current environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("invalid SESSION_TTL: must be positive")
	}
	if cfg.ShutdownPeriod <= 0 {
		return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: must be positive")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the service runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
