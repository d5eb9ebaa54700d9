package store

import (
	"context"
	"fmt"
	"nytbestsellers/internal/db"
	"nytbestsellers/pkg/migrations"
)

const (
	DriverSqlite   = "sqlite"
	DriverLibsql   = "libsql"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string `json:"driver" validate:"omitempty,oneof=sqlite libsql postgres"`
	// File is the sqlite database path.
	File string `json:"file" validate:"required_if=Driver sqlite"`
	// URL is the libsql or postgres connection url.
	URL string `json:"url" validate:"required_if=Driver libsql,required_if=Driver postgres"`
}

// Open connects to the configured database and makes sure its tables exist.
func Open(ctx context.Context, config Config) (Store, error) {
	switch config.Driver {
	case DriverSqlite, "":
		sqlDB, err := migrations.OpenAndMigrateDB(db.Schema, config.File)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(sqlDB), nil
	case DriverLibsql:
		sqlDB, err := migrations.OpenLibsql(config.URL)
		if err != nil {
			return nil, err
		}
		err = migrations.Migrate(sqlDB, db.Schema)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		return NewSQLStore(sqlDB), nil
	case DriverPostgres:
		return OpenPostgres(ctx, config.URL)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", config.Driver)
	}
}
