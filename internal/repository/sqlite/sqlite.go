// Package sqlite implements the repository interfaces on SQLite.
//
// The driver is modernc.org/sqlite — a pure Go translation of SQLite, no
// CGo, so the binary cross-compiles anywhere Go does. sql.Open("sqlite", ...)
// works because the blank import below registers the driver at init time.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Fail fast on a bad path or permissions instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed concurrently with a write — required for a web
	// server where requests hit the pool in parallel.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Off by default in SQLite; projects.user_id references users.github_id.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent
// across restarts.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			github_id  INTEGER PRIMARY KEY,
			username   TEXT NOT NULL,
			full_name  TEXT NOT NULL DEFAULT '',
			github_url TEXT NOT NULL DEFAULT '',
			avatar     TEXT NOT NULL DEFAULT '',
			location   TEXT NOT NULL DEFAULT '',
			company    TEXT NOT NULL DEFAULT '',
			blog       TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL DEFAULT '',
			hireable   INTEGER NOT NULL DEFAULT 0,
			bio        TEXT NOT NULL DEFAULT '',
			cv_url     TEXT NOT NULL DEFAULT '',
			cv_title   TEXT NOT NULL DEFAULT '',
			registered DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// github_id is the remote repository's ID — UNIQUE holds the 1:1 mapping
	// between project rows and created repositories.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id      INTEGER NOT NULL REFERENCES users(github_id),
			github_id    INTEGER NOT NULL UNIQUE,
			name         TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			html_url     TEXT NOT NULL DEFAULT '',
			start        DATETIME NOT NULL,
			end          DATETIME,
			points       INTEGER NOT NULL DEFAULT 0,
			review       TEXT NOT NULL DEFAULT '',
			review_count INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating projects table: %w", err)
	}

	return nil
}
