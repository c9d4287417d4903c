package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hackgrid/hackgrid/internal/infra/metrics"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("HACKGRID_HOME", t.TempDir())
	cfg := DefaultConfig()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8420 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8420)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Notifications.MaxPerDay != 20 {
		t.Errorf("Notifications.MaxPerDay = %d, want 20", cfg.Notifications.MaxPerDay)
	}
	if cfg.Missions.MaxMissions != 4 {
		t.Errorf("Missions.MaxMissions = %d, want 4", cfg.Missions.MaxMissions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HACKGRID_HOME", home)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Database.Dir != home {
		t.Errorf("Database.Dir = %q, want %q", cfg.Database.Dir, home)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HACKGRID_HOME", home)
	t.Setenv("HACKGRID_PORT", "9000")
	t.Setenv("HACKGRID_METRICS", "false")

	toml := `
[server]
host = "0.0.0.0"
port = 7000

[missions]
max_missions = 3

[notifications]
max_per_day = 5
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(toml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("env should override port, got %d", cfg.Server.Port)
	}
	if cfg.Telemetry.Prometheus {
		t.Error("HACKGRID_METRICS=false should disable metrics")
	}
	if cfg.Missions.MaxMissions != 3 || cfg.Missions.SkillChance != 0.5 {
		t.Errorf("Missions = %+v, want file value over defaults", cfg.Missions)
	}
	if cfg.Notifications.MaxPerDay != 5 {
		t.Errorf("Notifications.MaxPerDay = %d", cfg.Notifications.MaxPerDay)
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HACKGRID_HOME", home)
	// Registers cleanup so the value loaded from .env is removed afterwards.
	t.Setenv("HACKGRID_LOG_LEVEL", "")
	os.Unsetenv("HACKGRID_LOG_LEVEL")

	if err := os.WriteFile(filepath.Join(home, ".env"), []byte("HACKGRID_LOG_LEVEL=debug\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug from .env", cfg.Logging.Level)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"HACKGRID_PORT": "http"}},
		{"port range", map[string]string{"HACKGRID_PORT": "70000"}},
		{"unknown driver", map[string]string{"HACKGRID_DB_DRIVER": "mongo"}},
		{"postgres without dsn", map[string]string{"HACKGRID_DB_DRIVER": "postgres"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HACKGRID_HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Error("LoadConfig() should fail")
			}
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("HACKGRID_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Server.Port = 9999
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if got.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", got.Server.Port)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"", time.Hour},
		{"soon", time.Hour},
		{"-5m", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseDuration(tt.input, time.Hour); got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ─── Daemon Wiring ──────────────────────────────────────────────────────────

func TestNewWithConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HACKGRID_HOME", home)

	cfg := DefaultConfig()
	cfg.Logging.File = filepath.Join(home, "hackgrid.log")
	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	defer d.Close()

	if d.Engine == nil || d.Server == nil || d.Health == nil {
		t.Fatal("daemon services not wired")
	}

	ctx := context.Background()
	d.Health.RunOnce(ctx)
	if !d.Health.IsHealthy() {
		t.Errorf("fresh daemon unhealthy: %+v", d.Health.Statuses())
	}

	if _, err := d.Engine.Missions.Active(ctx, "neo", time.Now()); err != nil {
		t.Fatal(err)
	}
	d.runMaintenance(ctx, time.Hour)
	if got := testutil.ToFloat64(metrics.UsersTotal); got != 1 {
		t.Errorf("users gauge = %v, want 1", got)
	}
}

func TestNewWithConfig_BadCatalog(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HACKGRID_HOME", home)

	cfg := DefaultConfig()
	cfg.Catalog.Path = filepath.Join(home, "missing.toml")
	if _, err := NewWithConfig(cfg); err == nil {
		t.Error("NewWithConfig() should fail with a missing catalog")
	}
}
