package test

import (
	"log"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"todolist/internal/adapter/database/sqlite"
)

// InitTestDB returns a migrated in-memory database. Every call gets its own
// database.
func InitTestDB() *sqlite.DB {
	db, err := sqlite.NewDB(sqlite.Options{DSN: ":memory:"})

	if err != nil {
		log.Fatal(err)
	}

	return db
}

func NopLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}
