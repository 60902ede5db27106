// Package xdg resolves XDG Base Directory paths for trendseed: where the
// optional config file is searched and where run reports are written.
//
// The package handles fallback to traditional locations when XDG environment
// variables are not set. Directories are created private (0700): the config
// directory may hold a file with the superuser password and the state directory
// holds the last run report.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "trendseed"

// ConfigDir returns the XDG config directory for trendseed, creating it if missing.
// It falls back to ~/.config/trendseed when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return appDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for trendseed, creating it if missing.
// It falls back to ~/.local/state/trendseed when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return appDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// StateFile returns the path of name inside StateDir.
func StateFile(name string) (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func appDir(envVar, homeRel string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeRel)
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
