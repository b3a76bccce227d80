// Package sqlite implements the durable stores on a single SQLite database,
// as an alternative to the jsonl file backend. The store semantics are
// identical: the ledger is append-only with a cached running balance per row,
// compaction collapses old rows into one snapshot row, and the task set is
// replaced wholesale inside one transaction.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle.
type DB struct {
	db *sql.DB
}

// Migrations returns the schema migration statements. Each string is a
// single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Runtime-mutable settings, single row
		`CREATE TABLE IF NOT EXISTS settings (
			id           INTEGER PRIMARY KEY CHECK (id = 1),
			window_start TEXT NOT NULL,
			window_end   TEXT NOT NULL
		)`,

		// Active task set
		`CREATE TABLE IF NOT EXISTS tasks (
			position    INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL,
			buy_in      REAL NOT NULL DEFAULT 0,
			payout      REAL NOT NULL DEFAULT 0,
			status      TEXT NOT NULL DEFAULT 'pending',
			due_at      TEXT,
			created_at  TEXT
		)`,

		// Append-only monetary ledger with cached running balance
		`CREATE TABLE IF NOT EXISTS ledger (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			type        TEXT NOT NULL,
			task_id     TEXT,
			description TEXT,
			amount      REAL NOT NULL,
			ts          TEXT NOT NULL,
			balance     REAL NOT NULL
		)`,

		// Append-only audit history
		`CREATE TABLE IF NOT EXISTS history (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			event       TEXT NOT NULL,
			task_id     TEXT,
			description TEXT NOT NULL,
			buy_in      REAL NOT NULL DEFAULT 0,
			payout      REAL NOT NULL DEFAULT 0,
			amount      REAL,
			ts          TEXT NOT NULL
		)`,
	}
}

// Open opens (creating if needed) the database at path and applies the
// schema migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; matches the single-process model.
	db.SetMaxOpenConns(1)
	for _, stmt := range Migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &DB{db: db}, nil
}

// Close closes the database handle.
func (db *DB) Close() error { return db.db.Close() }
