package config

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultName is the embedded spec used when no file is given.
const DefaultName = "default.yaml"

//go:embed *.yaml scripts/*.tengo
var FS embed.FS

// read returns the file at path when it exists on disk, otherwise the
// embedded file of the same name. The directory is empty for embedded files.
func read(path string) ([]byte, string, error) {
	if path == "" {
		data, err := FS.ReadFile(DefaultName)
		return data, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		return data, filepath.Dir(path), nil
	}
	data, err := FS.ReadFile(cleanPath(path))
	return data, "", err
}

// ModTime reports when the spec file on disk last changed.
func ModTime(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func cleanPath(path string) string {
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "config/"); ok {
		s = after
	}
	return strings.TrimPrefix(s, "./")
}

// scriptPath maps a script reference onto the embedded scripts directory.
func scriptPath(path string) string {
	s := cleanPath(path)
	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}
	return "scripts/" + s
}
