package database

import (
	"fmt"

	"grindsheet/internal/config"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds database configuration
type Config struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	PostgresURL string
}

// NewConfig derives the database configuration from the application config.
func NewConfig(app *config.Config) (*Config, error) {
	cfg := &Config{
		Driver:      app.DBDriver,
		SQLitePath:  app.SQLitePath,
		PostgresDSN: app.PostgresDSN(),
		PostgresURL: app.PostgresURL(),
	}
	if cfg.Driver != DriverSQLite && cfg.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return cfg, nil
}

// SQLiteDSN returns the go-sqlite3 connection string with a busy timeout so
// concurrent writers wait for the lock instead of failing.
func (c *Config) SQLiteDSN() string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", c.SQLitePath)
}
