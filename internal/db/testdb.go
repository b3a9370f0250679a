package db

import (
	"database/sql"
	"testing"
)

// NewTestDB creates a fresh in-memory document database for one test.
// Open limits the pool to a single connection, so every query in the test
// sees the same in-memory database.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
