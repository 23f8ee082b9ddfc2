package gormdb

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("unsupported gorm driver")

type Opts struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

// NewGorm opens the database and migrates the schema from the models.
func NewGorm(o Opts) (*gorm.DB, error) {
	var dial gorm.Dialector

	switch o.Driver {
	case "mysql":
		dial = mysql.Open(NormalizeMySQLDSN(o.DSN))
	case "postgres":
		dial = postgres.Open(o.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel(o.LogLevel)),
		TranslateError:         true,
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})

	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()

	if err != nil {
		return nil, err
	}

	if o.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	}

	if o.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}

	if o.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(o.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&userModel{}, &taskModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return db, nil
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

// NormalizeMySQLDSN accepts either a go-sql-driver DSN or a mysql:// URL and
// returns a go-sql-driver DSN with parseTime and charset set.
func NormalizeMySQLDSN(input string) string {
	in := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), "jdbc:"))

	if in == "" {
		return in
	}

	if !strings.HasPrefix(in, "mysql://") {
		return ensureParams(in)
	}

	u, err := url.Parse(in)

	if err != nil {
		return in
	}

	cred := ""
	if u.User != nil {
		cred = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			cred += ":" + pass
		}
		cred += "@"
	}

	dsn := fmt.Sprintf("%stcp(%s)/%s", cred, u.Host, strings.TrimPrefix(u.Path, "/"))

	if u.RawQuery != "" {
		dsn += "?" + u.RawQuery
	}

	return ensureParams(dsn)
}

func ensureParams(dsn string) string {
	base, rawQuery, _ := strings.Cut(dsn, "?")

	q, err := url.ParseQuery(rawQuery)

	if err != nil {
		return dsn
	}

	if q.Get("parseTime") == "" {
		q.Set("parseTime", "true")
	}

	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}

	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return base + "?" + q.Encode()
}
