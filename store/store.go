// Package store opens the durable database once at process start and tracks
// its health from observed events. Postgres backs the service; SQLite backs
// tests and local development through the same Bun surface.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joeshaw/envdecode"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config for the durable store. Defaults load via envdecode.
type Config struct {
	// Driver selects postgres or sqlite. ENV: DB_DRIVER
	Driver string `env:"DB_DRIVER,default=postgres"`
	// Host of the database server. ENV: DB_HOST
	Host string `env:"DB_HOST,default=localhost"`
	// Port of the database server. ENV: DB_PORT
	Port int `env:"DB_PORT,default=5432"`
	// Database name. ENV: DB_DATABASE
	Database string `env:"DB_DATABASE,default=files_manager"`
	// User for authentication. ENV: DB_USER
	User string `env:"DB_USER,default=postgres"`
	// Password for authentication. ENV: DB_PASSWORD
	Password string `env:"DB_PASSWORD,default="`
	// DSN overrides host/port/database when set; required for sqlite.
	// ENV: DB_DSN
	DSN string `env:"DB_DSN,default="`
}

// Validate will run validation rules
func (c Config) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(
			&c.Driver,
			validation.Required,
			validation.In(DriverPostgres, DriverSQLite),
		),
	}

	if c.Driver == DriverSQLite {
		rules = append(rules, validation.Field(&c.DSN, validation.Required))
	} else {
		rules = append(rules,
			validation.Field(&c.Host, validation.Required),
			validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
			validation.Field(&c.Database, validation.Required),
		)
	}

	return validation.ValidateStruct(&c, rules...)
}

// ConfigFromEnv populates Config using envdecode; defaults come from the
// struct tags. A malformed environment value is an error, not a silent
// fallback to zero values.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Client owns the shared *bun.DB and its observed health state.
type Client struct {
	db      *bun.DB
	healthy atomic.Bool
}

// Open connects according to cfg. The connection is established once and
// reused for the process lifetime; a store that is down at startup leaves
// health false rather than failing the process.
func Open(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var db *bun.DB
	switch cfg.Driver {
	case DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, err
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		connector := pgdriver.NewConnector(
			pgdriver.WithAddr(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
			pgdriver.WithDatabase(cfg.Database),
			pgdriver.WithUser(cfg.User),
			pgdriver.WithPassword(cfg.Password),
			pgdriver.WithInsecure(true),
		)
		db = bun.NewDB(sql.OpenDB(connector), pgdialect.New())
	}

	c := &Client{db: db}
	db.AddQueryHook(&healthHook{client: c})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.healthy.Store(db.PingContext(ctx) == nil)

	return c, nil
}

// OpenSQLite opens an in-process database, mostly for tests and local
// development.
func OpenSQLite(dsn string) (*Client, error) {
	return Open(Config{Driver: DriverSQLite, DSN: dsn})
}

// DB exposes the shared Bun handle.
func (c *Client) DB() *bun.DB { return c.db }

// IsHealthy reflects the last observed connect or error event of the
// driver, not a fresh round-trip.
func (c *Client) IsHealthy() bool { return c.healthy.Load() }

// Close releases the underlying pool.
func (c *Client) Close() error { return c.db.Close() }

// Migrate discovers SQL migrations in fsys and applies the pending ones.
// Already-applied migrations are tracked in the database, so running with
// nothing pending is a no-op.
func Migrate(ctx context.Context, db *bun.DB, fsys fs.FS) error {
	migrations := migrate.NewMigrations()
	if err := migrations.Discover(fsys); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	_, err := migrator.Migrate(ctx)
	return err
}

// CreateSchema creates tables for the given models when absent. Tests use
// it to build schemas straight from the bun models.
func CreateSchema(ctx context.Context, db *bun.DB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// healthHook watches query outcomes: a connection-level failure flips
// health false, any completed round-trip flips it true. Row-level outcomes
// (no rows, constraint violations) leave it alone.
type healthHook struct {
	client *Client
}

var _ bun.QueryHook = (*healthHook)(nil)

func (h *healthHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *healthHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err == nil {
		h.client.healthy.Store(true)
		return
	}
	if isConnError(event.Err) {
		h.client.healthy.Store(false)
	}
}

func isConnError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "broken pipe")
}
