package testutil

import (
	"database/sql"
	"fmt"
	devenv "nytbestsellers/dev/env"
	"nytbestsellers/pkg/migrations"
	"testing"

	_ "modernc.org/sqlite"
)

type DBParams struct {
	Name   string
	Schema string
	// if unspecified, it will use `:memory:`
	Path string
}

// SetupDB opens a sqlite database with the schema applied, it is closed when
// the test ends.
func SetupDB(t testing.TB, params DBParams) *sql.DB {
	t.Helper()

	dbpath := ":memory:"
	if params.Path != "" && params.Path != ":memory:" {
		var err error
		dbpath, err = devenv.ResolvePath(params.Path)
		if err != nil {
			t.Fatal(err)
		}
	}
	sqlite, err := migrations.OpenAndMigrateDB(params.Schema, dbpath)
	if err != nil {
		t.Fatal(fmt.Errorf("%s: %w", params.Name, err))
	}
	t.Cleanup(func() {
		sqlite.Close()
	})
	return sqlite
}
