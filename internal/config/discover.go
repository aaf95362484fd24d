package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
)

// EnvConfig names the environment variable holding the configuration path.
const EnvConfig = "ARDUINO_SDK_CONFIG"

// FileNames are the configuration file names searched for, in order.
var FileNames = []string{"arduino-sdk.yaml", "arduino-sdk.yml", "arduino-sdk.json"}

// ErrNoConfig is returned when no configuration file is found.
var ErrNoConfig = stderrors.New("arduino-sdk.yaml not found (searched the working directory and its parents; set " + EnvConfig + " or pass --config)")

// Locate picks the configuration file: explicit wins, then the environment
// variable, then the first file found walking up from startDir.
func Locate(explicit string, getenv func(string) string, startDir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if getenv != nil {
		if p := getenv(EnvConfig); p != "" {
			return p, nil
		}
	}
	return FindFrom(startDir)
}

// FindFrom walks up from startDir until it finds one of FileNames.
func FindFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", ErrNoConfig
		}
		dir = parent
	}
}
