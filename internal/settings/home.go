package settings

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv names the environment variable that overrides the sbat home directory.
const HomeEnv = "SBAT_HOME"

// Home returns the sbat home directory.
// Priority order:
//  1. SBAT_HOME environment variable (if set)
//  2. ~/.sbat
//
// The directory is not created; callers that write into it use EnsureDir.
func Home() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return home, nil
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate user home directory: %w", err)
	}
	return filepath.Join(userHome, ".sbat"), nil
}

// DefaultPath returns $SBAT_HOME/settings.yaml.
func DefaultPath() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "settings.yaml"), nil
}

// DefaultHistoryDBPath returns $SBAT_HOME/history/runs.db.
func DefaultHistoryDBPath() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history", "runs.db"), nil
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
