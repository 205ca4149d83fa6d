// Package editor supplies the active-file context the readiness controller
// checks against.
package editor

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvActiveFile names the environment variable read by FromEnv.
const EnvActiveFile = "KITEREADY_ACTIVE_FILE"

// Static reports a fixed path.
type Static struct {
	path string
}

// NewStatic returns a Static context for path. Relative paths are resolved
// against the working directory.
func NewStatic(path string) Static {
	return Static{path: path}
}

func (s Static) ActiveFilePath() string {
	return fileBacked(s.path)
}

// FromEnv reads the active file from KITEREADY_ACTIVE_FILE on every call, so
// an editor wrapper can update it between checks.
type FromEnv struct{}

func (FromEnv) ActiveFilePath() string {
	return fileBacked(os.Getenv(EnvActiveFile))
}

// fileBacked returns the absolute path when path names a regular file and ""
// otherwise.
func fileBacked(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	return abs
}
