package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// OverrideCwd is set from the global --cwd flag.
var OverrideCwd string

// GetEffectiveCWD returns the absolute --cwd value when given, otherwise the
// process working directory.
func GetEffectiveCWD() string {
	if dir := strings.TrimSpace(OverrideCwd); dir != "" {
		if abs, err := filepath.Abs(dir); err == nil {
			return abs
		}
		return "."
	}
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	return "."
}

// ResolvePath interprets p relative to the effective working directory so
// --file, --db and similar flags honor --cwd.
func ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GetEffectiveCWD(), p)
}
