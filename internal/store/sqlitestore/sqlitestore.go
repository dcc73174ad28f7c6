// Package sqlitestore implements store.Store on SQLite. Items are JSON
// documents; feedback updates are applied inside the document with json_set
// so that ratings, reviews and the average change in one statement.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/erazemk/katalog/internal/db"
	"github.com/erazemk/katalog/internal/store"
)

// Store is the SQLite backend.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open database that already has the schema applied.
func New(database *sql.DB) *Store {
	return &Store{db: database}
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, err
	}
	return New(database), nil
}

// NewTestStore creates a fresh in-memory store for tests.
func NewTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
