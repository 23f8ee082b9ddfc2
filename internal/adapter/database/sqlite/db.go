package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	gosqlite "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const System = "sqlite"

type Options struct {
	// DSN is a file path or ":memory:".
	DSN          string
	LogQueries   bool
	LogLevel     string
	LogOutput    io.Writer
	MaxOpenConns int
}

type DB struct {
	*sql.DB
	QueryBuilder squirrel.StatementBuilderType
}

func NewDB(opts Options) (*DB, error) {
	if opts.DSN == "" {
		opts.DSN = "todolist.db"
	}

	dsn := withParams(opts.DSN)

	sqlDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem(System),
		otelsql.WithDBName("todolist"),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := sqlDB

	if opts.LogQueries {
		output := opts.LogOutput
		if output == nil {
			output = os.Stdout
		}

		level, err := zerolog.ParseLevel(opts.LogLevel)
		if err != nil || opts.LogLevel == "" {
			level = zerolog.DebugLevel
		}

		logger := zerolog.New(output).Level(level).With().Timestamp().Str("component", "sql").Logger()
		db = sqldblogger.OpenDriver(dsn, sqlDB.Driver(), zerologadapter.New(logger))

		// only the driver is reused, the pool is replaced
		if err := sqlDB.Close(); err != nil {
			db.Close()
			return nil, fmt.Errorf("close sqlite pool: %w", err)
		}
	}

	// every connection to :memory: is a separate database
	if IsInMemory(opts.DSN) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		maxOpen := opts.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 10
		}

		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		DB:           db,
		QueryBuilder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// RunMigrations applies the embedded schema. The migrate instance is not
// closed because that would close db.
func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")

	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})

	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)

	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func IsInMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func IsUniqueViolation(err error) bool {
	var sqliteErr gosqlite.Error

	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == gosqlite.ErrConstraintUnique
	}

	return false
}

func withParams(dsn string) string {
	params := []string{"_foreign_keys=on"}

	if !IsInMemory(dsn) {
		params = append(params, "_busy_timeout=5000", "_txlock=immediate")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + strings.Join(params, "&")
}
