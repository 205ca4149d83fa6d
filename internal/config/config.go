package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directories owned by kiteready itself.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Engine describes where the Kite engine lives and how to reach it.
type Engine struct {
	Binary             string   `toml:"binary"`
	InstallDir         string   `toml:"install_dir"`
	DownloadURL        string   `toml:"download_url"`
	DownloadTimeout    int      `toml:"download_timeout"`
	LockPath           string   `toml:"lock_path"`
	PIDPath            string   `toml:"pid_path"`
	APIURL             string   `toml:"api_url"`
	RequestTimeout     int      `toml:"request_timeout"`
	LaunchArgs         []string `toml:"launch_args"`
	SupportedPlatforms []string `toml:"supported_platforms"`
}

// Account holds the non-secret part of the login identity. Passwords are
// never read from the config file.
type Account struct {
	Email string `toml:"email"`
}

// Readiness tunes the readiness controller.
type Readiness struct {
	SettleDelaySeconds int `toml:"settle_delay_seconds"`
}

// Notifications contains configuration for ntfy mirroring of notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Telemetry controls the local event journal.
type Telemetry struct {
	Enabled     bool   `toml:"enabled"`
	JournalPath string `toml:"journal_path"`
	BufferSize  int    `toml:"buffer_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for kiteready.
//
// Configuration sections by subsystem:
//   - Paths: log and state directories
//   - Engine: install location, download source, lock/pid files, local API
//   - Account: login email
//   - Readiness: controller timing
//   - Notifications: ntfy mirror settings
//   - Telemetry: event journal
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Engine        Engine        `toml:"engine"`
	Account       Account       `toml:"account"`
	Readiness     Readiness     `toml:"readiness"`
	Notifications Notifications `toml:"notifications"`
	Telemetry     Telemetry     `toml:"telemetry"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("kiteready.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories kiteready writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SettleDelay is the fixed wait between a successful launch and the next state check.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Readiness.SettleDelaySeconds) * time.Second
}

// EngineRequestTimeout bounds each call to the engine's local API.
func (c *Config) EngineRequestTimeout() time.Duration {
	return time.Duration(c.Engine.RequestTimeout) * time.Second
}

// EngineDownloadTimeout bounds the installer download.
func (c *Config) EngineDownloadTimeout() time.Duration {
	return time.Duration(c.Engine.DownloadTimeout) * time.Second
}

// NotifyRequestTimeout bounds each ntfy publish.
func (c *Config) NotifyRequestTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
