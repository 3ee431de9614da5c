package internal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const identitySchema = `
CREATE TABLE IF NOT EXISTS identity (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// OpenDatabase opens (creating if needed) a SQLite database
func OpenDatabase(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "database ping failed")
	}

	if _, err := db.Exec(identitySchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create identity table")
	}

	return db, nil
}

// SQLiteIdentityStore keeps the user id in a key/value table.
type SQLiteIdentityStore struct {
	db  *sql.DB
	key string
}

// OpenSQLiteIdentityStore opens the database at path.
func OpenSQLiteIdentityStore(path, key string) (*SQLiteIdentityStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &IdentityError{Driver: string(StoreTypeSQLite), Op: "open", Err: err}
	}
	return NewSQLiteIdentityStore(db, key), nil
}

// NewSQLiteIdentityStore wraps an already opened database. The identity
// table must exist.
func NewSQLiteIdentityStore(db *sql.DB, key string) *SQLiteIdentityStore {
	return &SQLiteIdentityStore{db: db, key: key}
}

// Load implements IdentityStore.
func (s *SQLiteIdentityStore) Load(ctx context.Context) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT value FROM identity WHERE key = ?", s.key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &IdentityError{Driver: string(StoreTypeSQLite), Op: "load", Err: errors.Wrap(err, "query failed")}
	}
	if !value.Valid || value.String == "" {
		return "", false, nil
	}
	return value.String, true, nil
}

// Save implements IdentityStore.
func (s *SQLiteIdentityStore) Save(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO identity (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		s.key, id)
	if err != nil {
		return &IdentityError{Driver: string(StoreTypeSQLite), Op: "save", Err: errors.Wrap(err, "upsert failed")}
	}
	return nil
}

// Close implements IdentityStore.
func (s *SQLiteIdentityStore) Close() error {
	return s.db.Close()
}
