package browser

import (
	"os"
	"path/filepath"
	"strings"
)

// shortenPath replaces the home directory prefix with a tilde (~).
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return filepath.Join("~", strings.TrimPrefix(path, home))
	}
	return path
}
