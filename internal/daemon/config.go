// Package daemon manages the hackgrid server lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/infra/store"
)

// Config holds all daemon configuration.
type Config struct {
	Server        ServerConfig                 `toml:"server"`
	Database      DatabaseConfig               `toml:"database"`
	Catalog       CatalogConfig                `toml:"catalog"`
	Missions      progression.GenerationPolicy `toml:"missions"`
	Notifications NotificationsConfig          `toml:"notifications"`
	Maintenance   MaintenanceConfig            `toml:"maintenance"`
	Logging       LoggingConfig                `toml:"logging"`
	Telemetry     TelemetryConfig              `toml:"telemetry"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite | postgres
	DSN    string `toml:"dsn"`
	Dir    string `toml:"dir"` // sqlite only
}

// CatalogConfig points at a catalog file. Empty uses the embedded one.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// NotificationsConfig caps notification volume.
type NotificationsConfig struct {
	MaxPerDay int `toml:"max_per_day"`
}

// MaintenanceConfig controls the background cleanup loop.
type MaintenanceConfig struct {
	Interval         string `toml:"interval"`          // e.g. "1h"
	MissionRetention string `toml:"mission_retention"` // expired missions older than this are purged
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"` // info | debug
	File  string `toml:"file"`
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	home := hackgridHome()
	return Config{
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        8420,
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: store.DriverSQLite,
			Dir:    home,
		},
		Missions: progression.DefaultGenerationPolicy(),
		Notifications: NotificationsConfig{
			MaxPerDay: domain.DefaultNotificationPolicy().MaxPerDay,
		},
		Maintenance: MaintenanceConfig{
			Interval:         "1h",
			MissionRetention: "720h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads $HACKGRID_HOME/config.toml over the defaults, then
// applies HACKGRID_* environment overrides. A .env file in the working
// directory or in HACKGRID_HOME is loaded first; it never replaces
// variables that are already set.
func LoadConfig() (Config, error) {
	loadDotEnv()

	cfg := DefaultConfig()
	path := filepath.Join(hackgridHome(), "config.toml")

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the daemon cannot start with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Database.Driver {
	case store.DriverSQLite:
	case store.DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Notifications.MaxPerDay < 0 {
		return fmt.Errorf("notifications.max_per_day must not be negative")
	}
	if c.Missions.MaxMissions < 2 {
		return fmt.Errorf("missions.max_missions must be at least 2")
	}
	return nil
}

// SaveConfig writes the config to $HACKGRID_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(hackgridHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func loadDotEnv() {
	for _, p := range []string{".env", filepath.Join(hackgridHome(), ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("HACKGRID_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HACKGRID_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HACKGRID_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("HACKGRID_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("HACKGRID_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("HACKGRID_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("HACKGRID_CATALOG"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("HACKGRID_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HACKGRID_METRICS"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HACKGRID_METRICS: %w", err)
		}
		cfg.Telemetry.Prometheus = on
	}
	return nil
}

// hackgridHome returns the hackgrid data directory.
func hackgridHome() string {
	if env := os.Getenv("HACKGRID_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hackgrid")
}

// Home is exported for use by other packages.
func Home() string {
	return hackgridHome()
}
