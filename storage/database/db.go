package database

import (
	"context"
	"embed"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // "postgres"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // "sqlite"

	"github.com/trezcool/loo7/core"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsDir is the goose directory inside MigrationsFS.
const MigrationsDir = "migrations"

// MigrationsFS holds the SQL migrations shared by all drivers.
func MigrationsFS() embed.FS { return migrationsFS }

// Open opens the configured database and waits for it to answer.
func Open(conf *core.Config) (*sqlx.DB, error) {
	return OpenDriver(conf.Database.Driver, conf.Database.URL)
}

func OpenDriver(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverPostgres, DriverPgx:
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if driver == DriverSQLite {
		// one writer at a time; also keeps in-memory databases on a single connection
		db.SetMaxOpenConns(1)
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// sqliteDSN enables foreign keys (needed for cascades) and a busy timeout.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	q := make(url.Values)
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	return dsn + sep + q.Encode()
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 20
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Dialect returns the goose dialect of a driver.
func Dialect(driver string) string {
	if driver == DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}

// PrepareGoose points goose at the embedded migrations for the db's driver.
func PrepareGoose(db *sqlx.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	return errors.Wrap(goose.SetDialect(Dialect(db.DriverName())), "setting goose dialect")
}

func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := PrepareGoose(db); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, MigrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
