package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const createIdentityTableSQL = `
	CREATE TABLE IF NOT EXISTS identity (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`

// CreateInMemoryDB creates an in-memory SQLite database with the identity table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// every pooled connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createIdentityTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create identity table: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateTestDB creates an in-memory database holding one stored identity
func CreateTestDB(t *testing.T, key, value string) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)
	if _, err := db.Exec("INSERT INTO identity (key, value) VALUES (?, ?)", key, value); err != nil {
		t.Fatalf("Failed to insert identity: %v", err)
	}
	return db
}
