package db

import (
	"database/sql"
	"fmt"
)

// migrations are idempotent statements applied after the base schema.
// Append only.
var migrations = []string{
	// Expression indexes for the request and notification queues.
	`CREATE INDEX IF NOT EXISTS idx_documents_status
	     ON documents(collection, json_extract(data, '$.status'))`,
	`CREATE INDEX IF NOT EXISTS idx_documents_user
	     ON documents(collection, json_extract(data, '$.userId'))`,
	`CREATE INDEX IF NOT EXISTS idx_documents_read
	     ON documents(collection, json_extract(data, '$.read'))`,
}

// Migrate runs the schema migrations.
func Migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
