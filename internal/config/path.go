package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading ~ to the home directory and then any $VAR references.
func ExpandPath(path string) string {
	switch {
	case path == "~":
		path = underHome(path, "")
	case strings.HasPrefix(path, "~/"):
		path = underHome(path, path[2:])
	}
	return os.ExpandEnv(path)
}

func underHome(fallback, rest string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return fallback
	}
	return filepath.Join(home, rest)
}

// ConfigDirs lists the directories searched for config.yaml, in lookup order.
func ConfigDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "costcalc"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "costcalc"))
	}
	return append(dirs, ".")
}
