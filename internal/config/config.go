package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Run modes.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Env            string   `envconfig:"APP_ENV" default:"development"`
	Port           int      `envconfig:"PORT" default:"8080"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFile        string   `envconfig:"LOG_FILE" default:""`
	DBDriver       string   `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL    string   `envconfig:"DATABASE_URL" default:""`
	SQLitePath     string   `envconfig:"SQLITE_PATH" default:"todolist.db"`
	DBMaxConns     int32    `envconfig:"DB_MAX_CONNS" default:"10"`
	SecretID       string   `envconfig:"SECRET_ID" default:"default/todolist-db-app"`
	DBHost         string   `envconfig:"DB_HOST" default:""`
	KubeconfigPath string   `envconfig:"KUBECONFIG_PATH" default:""`
	InitSchema     bool     `envconfig:"INIT_SCHEMA" default:"true"`
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	TLSDomains     []string `envconfig:"TLS_DOMAINS"`
	TLSCacheDir    string   `envconfig:"TLS_CACHE_DIR" default:"certs"`
	Version        string   `envconfig:"VERSION" default:"dev"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values envconfig cannot check on its own.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}

	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}
