package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Rule sources selectable through RULES_SOURCE.
const (
	RulesSourceBackend  = "backend"
	RulesSourcePostgres = "postgres"
	RulesSourceFile     = "file"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	BackendURL          string        `envconfig:"BACKEND_URL" required:"true"`
	BackendTimeout      time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
	BackendServiceToken string        `envconfig:"BACKEND_SERVICE_TOKEN"`

	RulesSource      string        `envconfig:"RULES_SOURCE" default:"backend"`
	RulesFile        string        `envconfig:"RULES_FILE"`
	RulesCacheTTL    time.Duration `envconfig:"RULES_CACHE_TTL" default:"10m"`
	RulesRefreshCron string        `envconfig:"RULES_REFRESH_CRON" default:"*/15 * * * *"`

	WorksheetTTL       time.Duration `envconfig:"WORKSHEET_TTL" default:"8h"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

// LoadConfig reads configuration from environment variables. A .env file in
// the working directory is applied first when present; real environment
// variables win over it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return errors.New("BACKEND_URL must be provided")
	}
	c.RulesSource = strings.ToLower(strings.TrimSpace(c.RulesSource))
	switch c.RulesSource {
	case RulesSourceBackend:
		if c.BackendServiceToken == "" {
			return errors.New("BACKEND_SERVICE_TOKEN must be provided when RULES_SOURCE=backend")
		}
	case RulesSourcePostgres:
		if c.PGDSN == "" {
			return errors.New("PG_DSN must be provided when RULES_SOURCE=postgres")
		}
	case RulesSourceFile:
		if c.RulesFile == "" {
			return errors.New("RULES_FILE must be provided when RULES_SOURCE=file")
		}
	default:
		return fmt.Errorf("unknown RULES_SOURCE %q", c.RulesSource)
	}
	if c.WorksheetTTL <= 0 {
		return errors.New("WORKSHEET_TTL must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
