// Package db wraps the service's sqlite database: the imported product
// catalog, user accounts, the agent/workflow registry, and recorded
// analysis runs. Schema changes go through golang-migrate using the SQL
// files embedded from migrations/.
package db

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

// DB wraps a sql.DB handle to the service database.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the database at path, applies
// pragmas, and runs any pending migrations.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// OpenDB opens the database without touching the schema. Used by the
// migrate subcommand, which manages schema state itself.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn}
	if err := db.applyPragmas(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// applyPragmas sets the connection pragmas. WAL keeps readers unblocked
// during analysis writes; busy_timeout covers short write contention.
func (db *DB) applyPragmas() error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

// AttachAdminRoutes mounts the admin debugging endpoints on mux under
// /debug/. These routes are accessible only in dev mode or over Tailscale
// and are not publicly reachable.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://synapse.db", db.DB, &tailsql.DBOptions{
		Label: "Synapse DB",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
}
