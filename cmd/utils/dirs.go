package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDirEnv overrides the data directory location.
const DataDirEnv = "PROTOCOL_DATA_DIR"

// GetDataDir returns the directory for local client state: logs, the session
// context and the optional config file.
func GetDataDir() (string, error) {
	if dataDir := os.Getenv(DataDirEnv); dataDir != "" {
		return dataDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("GetDataDir: could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".protocol"), nil
}

// EnsureDataDir returns the data directory, creating it if needed.
func EnsureDataDir() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return dir, nil
}
