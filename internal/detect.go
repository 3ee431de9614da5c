package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DataPaths holds the locations hookchat reads and writes on disk
type DataPaths struct {
	BasePath     string // Base data directory
	ConfigFile   string // config.yaml
	IdentityFile string // identity.yaml, used by the file driver
	IdentityDB   string // identity.db, used by the sqlite driver
}

// DetectDataPaths detects the hookchat data directory based on the operating system.
// A non-empty override is used as the base directory as-is.
func DetectDataPaths(override string) (DataPaths, error) {
	basePath := override
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DataPaths{}, fmt.Errorf("failed to get home directory: %w", err)
		}

		switch runtime.GOOS {
		case "darwin", "linux", "freebsd", "openbsd":
			basePath = filepath.Join(home, ".hookchat")
		case "windows":
			// Windows users expect application data under AppData
			if appData := os.Getenv("APPDATA"); appData != "" {
				basePath = filepath.Join(appData, "hookchat")
			} else {
				basePath = filepath.Join(home, ".hookchat")
			}
		default:
			return DataPaths{}, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
		}
	}

	return DataPaths{
		BasePath:     basePath,
		ConfigFile:   filepath.Join(basePath, "config.yaml"),
		IdentityFile: filepath.Join(basePath, "identity.yaml"),
		IdentityDB:   filepath.Join(basePath, "identity.db"),
	}, nil
}

// ConfigExists checks if the config file exists
func (dp DataPaths) ConfigExists() bool {
	_, err := os.Stat(dp.ConfigFile)
	return err == nil
}

// IdentityPath returns the backing path for the given identity driver, or
// an empty string when the driver keeps nothing on disk.
func (dp DataPaths) IdentityPath(driver StoreType) string {
	switch driver {
	case StoreTypeFile:
		return dp.IdentityFile
	case StoreTypeSQLite:
		return dp.IdentityDB
	default:
		return ""
	}
}
