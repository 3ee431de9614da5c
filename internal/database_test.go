package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/hookchat/testutil"
)

func TestOpenDatabase(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "existing database",
			setup: func(t *testing.T) string {
				tmpDir := testutil.CreateTempDir(t)
				dbPath := filepath.Join(tmpDir, "identity.db")
				testutil.CreateSQLiteFixture(t, dbPath, map[string]string{DefaultIdentityKey: "user-1"})
				return dbPath
			},
			wantErr: false,
		},
		{
			name: "new database in missing directory",
			setup: func(t *testing.T) string {
				tmpDir := testutil.CreateTempDir(t)
				return filepath.Join(tmpDir, "nested", "identity.db")
			},
			wantErr: false,
		},
		{
			name: "parent is a file",
			setup: func(t *testing.T) string {
				tmpDir := testutil.CreateTempDir(t)
				blocker := filepath.Join(tmpDir, "blocker")
				if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
					t.Fatal(err)
				}
				return filepath.Join(blocker, "identity.db")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := tt.setup(t)
			db, err := OpenDatabase(dbPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("OpenDatabase() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if db != nil {
				defer db.Close()
			}
		})
	}
}

func TestSQLiteIdentityStoreReadsFixture(t *testing.T) {
	db := testutil.CreateTestDB(t, DefaultIdentityKey, "user-fixture")
	store := NewSQLiteIdentityStore(db, DefaultIdentityKey)

	id, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !ok || id != "user-fixture" {
		t.Errorf("Load() = %q, %v, want user-fixture, true", id, ok)
	}
}

func TestSQLiteIdentityStoreUpsert(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	store := NewSQLiteIdentityStore(db, DefaultIdentityKey)
	ctx := context.Background()

	if _, ok, _ := store.Load(ctx); ok {
		t.Fatal("Load() on empty table should report not found")
	}

	for _, id := range []string{"user-a", "user-b"} {
		if err := store.Save(ctx, id); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	id, ok, err := store.Load(ctx)
	if err != nil || !ok || id != "user-b" {
		t.Errorf("Load() = %q, %v, %v, want user-b", id, ok, err)
	}

	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM identity").Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("identity rows = %d, want 1", rows)
	}
}

func TestSQLiteIdentityStoreKeysAreIndependent(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	ctx := context.Background()

	a := NewSQLiteIdentityStore(db, "a")
	b := NewSQLiteIdentityStore(db, "b")
	if err := a.Save(ctx, "user-a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Load(ctx); ok {
		t.Error("key b should be empty")
	}
}
