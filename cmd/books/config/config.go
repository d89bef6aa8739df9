package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is loaded from defaults, then an optional YAML file, then the
// environment (a .env file in the working directory is honoured).
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Logging       LoggingConfig       `yaml:"logging"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver"`
	URL            string `yaml:"url"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Name           string `yaml:"name"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	SSLMode        string `yaml:"sslmode"`
	MigrationsPath string `yaml:"migrations_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type NotificationsConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite3"
	DriverMemory   = "memory"
)

/* Loads the configuration. An empty path skips the YAML file. */
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	applyEnvOverrides(cfg)
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = defaultMigrationsPath(cfg.Database.Driver)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:  DriverPostgres,
			Host:    "localhost",
			Port:    5432,
			Name:    "library",
			SSLMode: "disable",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Notifications: NotificationsConfig{
			Enabled: false,
			Timeout: 2 * time.Second,
		},
	}
}

func defaultMigrationsPath(driver string) string {
	switch driver {
	case DriverSQLite:
		return "migrations/sqlite3"
	case DriverMemory:
		return ""
	}
	return "migrations/postgres"
}

func applyEnvOverrides(cfg *Config) {
	cfg.Database.Driver = getEnv("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.Host = getEnv("DATABASE_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DATABASE_PORT", cfg.Database.Port)
	cfg.Database.Name = getEnv("DATABASE_NAME", cfg.Database.Name)
	cfg.Database.User = getEnv("DATABASE_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DATABASE_PASSWORD", cfg.Database.Password)
	cfg.Database.SSLMode = getEnv("DATABASE_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MigrationsPath = getEnv("DATABASE_MIGRATIONS_PATH", cfg.Database.MigrationsPath)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	if v := os.Getenv("NOTIFICATIONS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Notifications.Enabled = enabled
		}
	}
	cfg.Notifications.BaseURL = getEnv("NOTIFICATIONS_URL", cfg.Notifications.BaseURL)
	if v := os.Getenv("NOTIFICATIONS_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.Notifications.Timeout = timeout
		}
	}
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Database),
		validation.Field(&c.Logging),
		validation.Field(&c.Notifications),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(DriverPostgres, DriverPgx, DriverSQLite, DriverMemory)),
		validation.Field(&d.Name, validation.When(d.URL == "" && d.Driver != DriverMemory, validation.Required)),
		validation.Field(&d.MigrationsPath, validation.When(d.Driver != DriverMemory, validation.Required)),
		validation.Field(&d.Port, validation.Min(0), validation.Max(65535)),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "error", "disabled")),
		validation.Field(&l.Format, validation.In("console", "json")),
	)
}

func (n NotificationsConfig) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.BaseURL, validation.When(n.Enabled, validation.Required)),
		validation.Field(&n.Timeout, validation.Min(time.Duration(0))),
	)
}

/* Returns the connection string for the configured driver. An explicit URL always wins. */
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	switch d.Driver {
	case DriverSQLite:
		return d.Name
	case DriverMemory:
		return ""
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		u.RawQuery = "sslmode=" + d.SSLMode
	}
	return u.String()
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
