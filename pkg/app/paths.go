package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/gatehouse/gatehouse.yaml →
// ~/.config/gatehouse/gatehouse.yaml → ./gatehouse.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "gatehouse", "gatehouse.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "gatehouse", "gatehouse.yaml"))
	}

	candidates = append(candidates, "gatehouse.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// DefaultConfigPath is where `config init` writes when no path is given.
func DefaultConfigPath() string {
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		return filepath.Join(xdg, "gatehouse", "gatehouse.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "gatehouse.yaml"
	}
	return filepath.Join(home, ".config", "gatehouse", "gatehouse.yaml")
}

// DefaultDataDir returns the default persistent data directory. Uses
// $XDG_DATA_HOME/gatehouse if set, otherwise ~/.local/share/gatehouse per
// the XDG spec.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "gatehouse")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "gatehouse")
}

// DefaultSandboxRoot returns the default sandbox directory.
func DefaultSandboxRoot() string {
	return filepath.Join(DefaultDataDir(), "sandbox")
}
