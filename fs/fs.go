// Package fs resolves the directories git-commit-ai keeps its files in.
package fs

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "git-commit-ai"

// DefaultDataDir returns the data directory for git-commit-ai.
// Uses XDG_DATA_HOME if set, otherwise falls back to ~/.local/share/git-commit-ai.
func DefaultDataDir() string {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// DefaultConfigDir returns the configuration directory for git-commit-ai.
// Uses XDG_CONFIG_HOME if set, otherwise falls back to ~/.config/git-commit-ai.
func DefaultConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultHistoryPath returns the default location of the history file.
func DefaultHistoryPath() string {
	return filepath.Join(DefaultDataDir(), "history.jsonl")
}

func xdgDir(env string, fallback ...string) string {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append(append([]string{home}, fallback...), AppName)...)
}
