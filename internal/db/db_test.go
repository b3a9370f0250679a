package db

import (
	"path/filepath"
	"testing"
)

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)

	// Running again must not fail.
	if err := EnsureSchema(database); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	var name string
	err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'documents'`).Scan(&name)
	if err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
}

func TestRejectsInvalidJSON(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO documents (collection, id, data) VALUES ('systems', 'a', 'not json')`)
	if err == nil {
		t.Error("expected CHECK constraint to reject invalid JSON")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "igralnica.sqlite3")
	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	var mode string
	if err := database.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("reading journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected wal journal mode, got %q", mode)
	}
}
