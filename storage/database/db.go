package database

import (
	"context"
	"embed"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/atlantis/core"
)

// Engines (also the database/sql driver names)
const (
	EnginePostgres = "postgres" // lib/pq
	EnginePgx      = "pgx"      // jackc/pgx stdlib
	EngineMySQL    = "mysql"
)

//go:embed migrations
var migrationsFS embed.FS

var ErrUnknownEngine = errors.New("unknown database engine")

// DSN builds the driver connection string of conf.
func DSN(conf core.DatabaseConfig) (string, error) {
	switch conf.Engine {
	case EnginePostgres, EnginePgx:
		sslMode := "require"
		if conf.DisableTLS {
			sslMode = "disable"
		}
		q := make(url.Values)
		q.Set("sslmode", sslMode)
		q.Set("timezone", "utc")

		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(conf.User, conf.Password),
			Host:     conf.Address(),
			Path:     conf.Name,
			RawQuery: q.Encode(),
		}
		return u.String(), nil

	case EngineMySQL:
		mc := mysql.NewConfig()
		mc.User = conf.User
		mc.Passwd = conf.Password
		mc.Net = "tcp"
		mc.Addr = conf.Address()
		mc.DBName = conf.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		if !conf.DisableTLS {
			mc.TLSConfig = "true"
		}
		return mc.FormatDSN(), nil
	}
	return "", errors.Wrap(ErrUnknownEngine, conf.Engine)
}

// Open opens the database described by conf. It does not connect.
func Open(conf core.DatabaseConfig) (*sqlx.DB, error) {
	dsn, err := DSN(conf)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(conf.Engine, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func Ping(ctx context.Context, db *sqlx.DB, maxAttempts int) error {
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

func migrationsDir(engine string) (dialect, dir string) {
	if engine == EngineMySQL {
		return "mysql", "migrations/mysql"
	}
	return "postgres", "migrations/postgres"
}

// RunMigrations runs a goose command (up, down, status, version, redo, ...) against db.
func RunMigrations(db *sqlx.DB, command string, args ...string) error {
	dialect, dir := migrationsDir(db.DriverName())
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.RunFS(command, db.DB, migrationsFS, dir, args...); err != nil {
		return errors.Wrapf(err, "running migration command %q", command)
	}
	return nil
}

func Migrate(db *sqlx.DB) error {
	return RunMigrations(db, "up")
}
