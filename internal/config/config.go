package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	ServerPort string `env:"SERVER_PORT" envDefault:":3000"`
	CertFile   string `env:"CERT_FILE"`
	KeyFile    string `env:"KEY_FILE"`
	JWTSecret  string `env:"JWT_SECRET"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBName     string `env:"DB_NAME"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./data/fintrack.db"`

	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	LedgerTimeout    time.Duration `env:"LEDGER_TIMEOUT" envDefault:"3s"`
	DirectoryTimeout time.Duration `env:"DIRECTORY_TIMEOUT" envDefault:"3s"`

	EWalletSyncSchedule   string `env:"EWALLET_SYNC_SCHEDULE" envDefault:"0 0 * * *"`
	EWalletFingerprintKey string `env:"EWALLET_FINGERPRINT_KEY"`

	OtelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validatePort(c.ServerPort); err != nil {
		return err
	}

	switch c.DBDriver {
	case DriverMySQL:
		if c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("mysql driver requires DB_USER and DB_NAME")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("sqlite driver requires SQLITE_PATH")
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER '%s': must be one of [%s %s]", c.DBDriver, DriverMySQL, DriverSQLite)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.RequestTimeout <= 0 || c.LedgerTimeout <= 0 || c.DirectoryTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL '%s'", c.LogLevel)
	}

	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TLSEnabled reports whether both a certificate and key were configured.
func (c Config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// validatePort accepts "8080" or ":8080".
func validatePort(addr string) error {
	port := strings.TrimPrefix(addr, ":")
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port '%s': must be a number", port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", n)
	}
	return nil
}
