package daemon

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgrid/hackgrid/internal/api"
	"github.com/hackgrid/hackgrid/internal/app/engagement"
	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/health"
	"github.com/hackgrid/hackgrid/internal/infra/metrics"
	"github.com/hackgrid/hackgrid/internal/infra/store"
)

// Daemon is the hackgrid runtime. It wires together all services.
type Daemon struct {
	Config  Config
	DB      *store.DB
	Catalog *progression.Catalog
	Engine  *engagement.Engine
	Server  *api.Server
	Health  *health.Checker

	logFile io.Closer
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	d := &Daemon{Config: cfg}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(io.MultiWriter(os.Stderr, f))
		d.logFile = f
	}

	catalog, err := progression.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	for _, w := range catalog.Warnings() {
		log.Printf("[catalog] WARNING: %s", w)
	}
	d.Catalog = catalog

	db, err := store.Open(store.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Dir:    cfg.Database.Dir,
	})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	d.DB = db

	opts := engagement.DefaultOptions()
	opts.Generation = cfg.Missions
	opts.Notifications = domain.NotificationPolicy{MaxPerDay: cfg.Notifications.MaxPerDay}
	d.Engine = engagement.NewEngine(db, catalog, opts)

	dataDir := ""
	if db.Driver() == store.DriverSQLite && cfg.Database.DSN == "" {
		dataDir = cfg.Database.Dir
	}
	d.Health = health.NewChecker(db, dataDir, catalog)

	srv := api.NewServer(d.Engine)
	srv.SetHealthChecker(d.Health)
	srv.SetCORSOrigins(cfg.Server.CORSOrigins)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	if cfg.Logging.Level == "debug" {
		srv.EnableRequestLog()
	}
	d.Server = srv

	return d, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)
	go d.maintain(ctx)

	addr := d.Config.Addr()
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[daemon] shutdown: %v", err)
		}
	}()

	fmt.Printf("hackgrid serving on http://%s\n", addr)
	fmt.Printf("  Database: %s\n", d.DB.Driver())
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// maintain purges old mission instances and refreshes store gauges.
func (d *Daemon) maintain(ctx context.Context) {
	interval := parseDuration(d.Config.Maintenance.Interval, time.Hour)
	retention := parseDuration(d.Config.Maintenance.MissionRetention, 30*24*time.Hour)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		d.runMaintenance(ctx, retention)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Daemon) runMaintenance(ctx context.Context, retention time.Duration) {
	n, err := d.Engine.Missions.PurgeExpired(ctx, time.Now().Add(-retention))
	if err != nil {
		log.Printf("[daemon] maintenance: %v", err)
	} else if n > 0 {
		log.Printf("[daemon] purged %d expired missions", n)
	}

	users, err := d.DB.CountUsers(ctx)
	if err != nil {
		log.Printf("[daemon] count users: %v", err)
		return
	}
	metrics.UsersTotal.Set(float64(users))
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.logFile != nil {
		log.SetOutput(os.Stderr)
		_ = d.logFile.Close()
	}
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
