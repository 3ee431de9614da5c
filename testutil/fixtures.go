package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateSQLiteFixture creates an identity database file at dbPath holding
// the given key/value pairs
func CreateSQLiteFixture(t *testing.T, dbPath string, values map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(createIdentityTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	for k, v := range values {
		if _, err := db.Exec("INSERT INTO identity (key, value) VALUES (?, ?)", k, v); err != nil {
			t.Fatalf("Failed to insert %s: %v", k, err)
		}
	}
}

// CreateIdentityFileFixture writes a YAML identity file at path holding the
// given key/value pairs
func CreateIdentityFileFixture(t *testing.T, path string, values map[string]string) {
	t.Helper()
	content := "values:\n"
	for k, v := range values {
		content += "  " + k + ": " + v + "\n"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write identity fixture: %v", err)
	}
}
