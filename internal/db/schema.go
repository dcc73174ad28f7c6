package db

import (
	"database/sql"
	"fmt"
)

// migrations are applied in order; PRAGMA user_version records how many
// have run. Append new migrations at the end, never edit applied ones.
//
// Items are stored as JSON documents. The category and image columns live
// outside the document for filtering and to keep image bytes out of list
// queries.
var migrations = []string{
	// 1: base schema.
	`CREATE TABLE users (
	    id            TEXT PRIMARY KEY,
	    username      TEXT NOT NULL UNIQUE,
	    password_hash TEXT NOT NULL,
	    is_admin      INTEGER NOT NULL DEFAULT 0 CHECK (is_admin IN (0, 1)),
	    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE items (
	    id         TEXT PRIMARY KEY,
	    category   TEXT NOT NULL,
	    doc        TEXT NOT NULL CHECK (json_valid(doc)),
	    image      BLOB,
	    image_mime TEXT
	);

	CREATE INDEX idx_items_category ON items(category);

	CREATE TABLE settings (
	    key   TEXT PRIMARY KEY,
	    value TEXT NOT NULL
	);

	CREATE TABLE revoked_tokens (
	    jti        TEXT PRIMARY KEY,
	    expires_at DATETIME NOT NULL
	);`,

	// 2: expired revocations are purged on every logout.
	`CREATE INDEX idx_revoked_tokens_expires ON revoked_tokens(expires_at);`,
}

// SchemaVersion is the version EnsureSchema migrates to.
var SchemaVersion = len(migrations)

// EnsureSchema applies the migrations the database has not seen yet.
func EnsureSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this binary (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		if err := migrate(db, i+1, migrations[i]); err != nil {
			return err
		}
	}
	return nil
}

func migrate(db *sql.DB, version int, stmt string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("running migration %d: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("running migration %d: %w", version, err)
	}
	// PRAGMA does not take bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("recording migration %d: %w", version, err)
	}
	return tx.Commit()
}
