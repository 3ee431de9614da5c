package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDetectDataPaths(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("home layout differs on windows")
	}
	paths, err := DetectDataPaths("")
	if err != nil {
		t.Fatalf("DetectDataPaths() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	expectedBase := filepath.Join(home, ".hookchat")
	if paths.BasePath != expectedBase {
		t.Errorf("BasePath = %v, want %v", paths.BasePath, expectedBase)
	}
	if paths.ConfigFile != filepath.Join(expectedBase, "config.yaml") {
		t.Errorf("ConfigFile = %v", paths.ConfigFile)
	}
}

func TestDetectDataPathsOverride(t *testing.T) {
	dir := t.TempDir()
	paths, err := DetectDataPaths(dir)
	if err != nil {
		t.Fatalf("DetectDataPaths() error = %v", err)
	}

	if paths.BasePath != dir {
		t.Errorf("BasePath = %v, want %v", paths.BasePath, dir)
	}
	if paths.IdentityDB != filepath.Join(dir, "identity.db") {
		t.Errorf("IdentityDB = %v", paths.IdentityDB)
	}
	if paths.ConfigExists() {
		t.Error("ConfigExists() should be false for an empty directory")
	}

	if err := os.WriteFile(paths.ConfigFile, []byte("source: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !paths.ConfigExists() {
		t.Error("ConfigExists() should be true after writing config")
	}
}

func TestIdentityPath(t *testing.T) {
	paths, _ := DetectDataPaths("/data")

	tests := []struct {
		driver StoreType
		want   string
	}{
		{StoreTypeFile, filepath.Join("/data", "identity.yaml")},
		{StoreTypeSQLite, filepath.Join("/data", "identity.db")},
		{StoreTypeMemory, ""},
		{StoreTypeRedis, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.driver), func(t *testing.T) {
			if got := paths.IdentityPath(tt.driver); got != tt.want {
				t.Errorf("IdentityPath(%s) = %v, want %v", tt.driver, got, tt.want)
			}
		})
	}
}
