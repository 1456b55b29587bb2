package database

import (
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/ratiba/core"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

func sqliteDSN(conf *core.Config) (string, error) {
	if err := os.MkdirAll(conf.Database.DataDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating data dir %s", conf.Database.DataDir)
	}
	path := filepath.Join(conf.Database.DataDir, conf.Database.Name+".db")
	return "file:" + path + "?_busy_timeout=5000&_txlock=immediate", nil
}

func postgresDSN(dbName string, conf *core.Config) string {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open connects to the SQL database configured by `database.engine` and waits for it to be ready.
func Open(conf *core.Config) (*sqlx.DB, error) {
	var (
		dsn string
		err error
	)
	switch conf.Database.Engine {
	case core.EngineSQLite:
		if dsn, err = sqliteDSN(conf); err != nil {
			return nil, err
		}
	case core.EnginePostgres:
		dsn = postgresDSN(conf.Database.Name, conf)
	default:
		return nil, errors.Errorf("unsupported SQL engine %q", conf.Database.Engine)
	}

	db, err := sqlx.Open(conf.Database.Engine, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Database.Engine == core.EngineSQLite {
		db.SetMaxOpenConns(1)
	}
	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
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

func createDB(db *sql.DB, conf *core.Config) error {
	// check if DB exists
	var exists bool
	rows, err := db.Query("SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err = rows.Scan(&exists); err != nil {
			return errors.Wrap(err, "checking DB")
		}
	}
	if err = rows.Err(); err != nil {
		return errors.Wrap(err, "checking DB")
	}

	// create DB if not exist
	if !exists {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %q", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the postgres database of the app. Other engines create theirs on Open.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.Engine != core.EnginePostgres {
		return nil
	}
	db, err := sql.Open("postgres", postgresDSN("postgres", conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	return createDB(db, conf)
}

type gooseLogger struct {
	log core.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatal(fmt.Sprintf(format, v...))
}

// SetLogger routes the migrations output to `log`.
func SetLogger(log core.Logger) {
	goose.SetLogger(gooseLogger{log: log})
}

func prepareGoose(dialect string) error {
	goose.SetBaseFS(migrations)
	return errors.Wrap(goose.SetDialect(dialect), "setting migrations dialect")
}

// Migrate applies every pending migration.
func Migrate(db *sql.DB, dialect string) error {
	if err := prepareGoose(dialect); err != nil {
		return err
	}
	if err := goose.Up(db, migrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrations runs a goose command (up, down, status, version, redo, reset...).
func RunMigrations(db *sql.DB, dialect, command string, args ...string) error {
	if err := prepareGoose(dialect); err != nil {
		return err
	}
	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "running migrations %s", command)
	}
	return nil
}
