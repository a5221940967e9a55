// Package config resolves CashMind settings that live outside viper's
// reach: file paths typed by the user and the Google Sheets credentials.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a path as typed in the config file, a flag or the chat
// (/recibo). Surrounding whitespace and the quotes a terminal adds to a
// dragged file are dropped, then a leading ~ and $VARS are expanded.
func ExpandPath(path string) string {
	path = strings.TrimSpace(path)
	if len(path) >= 2 && (path[0] == '\'' || path[0] == '"') && path[len(path)-1] == path[0] {
		path = path[1 : len(path)-1]
	}
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return os.ExpandEnv(path)
}
