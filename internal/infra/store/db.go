// Package store provides persistent storage for hackgrid progression state.
// SQLite (modernc.org/sqlite, pure Go) is the default backend; PostgreSQL
// (lib/pq) is supported for multi-node deployments. Queries are written
// once with ? placeholders and rebound per driver.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects the backend.
type Options struct {
	Driver string // "sqlite" (default) or "postgres"
	DSN    string // postgres connection string, or an explicit sqlite DSN
	Dir    string // sqlite data directory, used when DSN is empty
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds every repository method. It runs against the pool (DB) or
// inside a transaction (Tx).
type Queries struct {
	q      querier
	driver string
}

// DB wraps the connection pool and runs migrations on open.
type DB struct {
	*Queries
	db *sql.DB
}

// Tx is a Queries bound to one transaction.
type Tx struct {
	*Queries
	tx *sql.Tx
}

// Open connects to the configured backend and applies migrations.
func Open(opts Options) (*DB, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var dsn string
	switch driver {
	case DriverSQLite:
		dsn = opts.DSN
		if dsn == "" {
			if err := os.MkdirAll(opts.Dir, 0700); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			dsn = "file:" + filepath.Join(opts.Dir, "hackgrid.db") +
				"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres driver needs a dsn")
		}
		dsn = opts.DSN
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite is single-writer
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	d := &DB{Queries: &Queries{q: db, driver: driver}, db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// OpenSQLite opens the SQLite database under dir.
func OpenSQLite(dir string) (*DB, error) {
	return Open(Options{Driver: DriverSQLite, Dir: dir})
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Driver returns the backend name.
func (d *DB) Driver() string {
	return d.driver
}

// WithTx runs fn in a transaction. fn must only use tx; with SQLite the
// transaction holds the single connection.
func (d *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	tx := &Tx{Queries: &Queries{q: sqlTx, driver: d.driver}, tx: sqlTx}
	if err := fn(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// migrate runs idempotent schema migrations. The DDL is the common subset
// of SQLite and PostgreSQL.
func (d *DB) migrate() error {
	migrations := []string{
		// Player progression state
		`CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			xp              BIGINT NOT NULL DEFAULT 0,
			level           INTEGER NOT NULL DEFAULT 1,
			coins           BIGINT NOT NULL DEFAULT 0,
			streak_current  INTEGER NOT NULL DEFAULT 0,
			streak_longest  INTEGER NOT NULL DEFAULT 0,
			streak_last_day BIGINT NOT NULL DEFAULT 0,
			last_active     BIGINT NOT NULL DEFAULT 0,
			created_at      BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_xp ON users(xp)`,

		// Verified solves, one per user and puzzle
		`CREATE TABLE IF NOT EXISTS puzzle_solves (
			user_id       TEXT NOT NULL,
			puzzle        TEXT NOT NULL,
			category      TEXT NOT NULL,
			difficulty    TEXT NOT NULL,
			hints_used    INTEGER NOT NULL DEFAULT 0,
			time_spent    INTEGER NOT NULL DEFAULT 0,
			xp_awarded    BIGINT NOT NULL DEFAULT 0,
			coins_awarded BIGINT NOT NULL DEFAULT 0,
			solved_at     BIGINT NOT NULL,
			PRIMARY KEY (user_id, puzzle)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_solves_user_time ON puzzle_solves(user_id, solved_at)`,

		// Current mission window per user and period
		`CREATE TABLE IF NOT EXISTS mission_sets (
			user_id    TEXT NOT NULL,
			period     TEXT NOT NULL,
			started_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			PRIMARY KEY (user_id, period)
		)`,

		// Rolled mission instances
		`CREATE TABLE IF NOT EXISTS user_missions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			mission_id TEXT NOT NULL,
			period     TEXT NOT NULL,
			started_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			claimed    INTEGER NOT NULL DEFAULT 0,
			claimed_at BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_missions_user_expires ON user_missions(user_id, expires_at)`,

		// Unlocked achievements
		`CREATE TABLE IF NOT EXISTS user_achievements (
			user_id        TEXT NOT NULL,
			achievement_id TEXT NOT NULL,
			unlocked_at    BIGINT NOT NULL,
			PRIMARY KEY (user_id, achievement_id)
		)`,

		// Append-only reward ledger
		`CREATE TABLE IF NOT EXISTS reward_ledger (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			source     TEXT NOT NULL,
			ref        TEXT NOT NULL DEFAULT '',
			xp         BIGINT NOT NULL,
			coins      BIGINT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_user_time ON reward_ledger(user_id, created_at)`,

		// Toast queue (policy: max N/day)
		`CREATE TABLE IF NOT EXISTS notifications (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			shown      INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_user_created ON notifications(user_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.q.ExecContext(ctx, q.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.q.QueryContext(ctx, q.rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.q.QueryRowContext(ctx, q.rebind(query), args...)
}

// rebind rewrites ? placeholders to $1..$n for PostgreSQL.
func (q *Queries) rebind(query string) string {
	if q.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
