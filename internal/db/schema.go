package db

import (
	"database/sql"
	"fmt"
)

// schema stores every collection in one table of JSON documents.
// Insertion order (rowid) is the natural order of a collection.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    data       TEXT NOT NULL CHECK (json_valid(data)),
    PRIMARY KEY (collection, id)
);
`

// EnsureSchema creates the documents table and applies migrations.
// Safe to run on every start.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return Migrate(db)
}
