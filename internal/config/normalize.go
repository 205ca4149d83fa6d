package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	c.normalizeAccount()
	c.normalizeNotifications()
	if err := c.normalizeTelemetry(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngine() error {
	var err error
	c.Engine.Binary = strings.TrimSpace(c.Engine.Binary)
	if c.Engine.Binary == "" {
		c.Engine.Binary = defaultEngineBinary
	}
	if c.Engine.InstallDir, err = expandPath(c.Engine.InstallDir); err != nil {
		return fmt.Errorf("engine.install_dir: %w", err)
	}
	if c.Engine.LockPath, err = expandPath(c.Engine.LockPath); err != nil {
		return fmt.Errorf("engine.lock_path: %w", err)
	}
	if c.Engine.PIDPath, err = expandPath(c.Engine.PIDPath); err != nil {
		return fmt.Errorf("engine.pid_path: %w", err)
	}
	if value, ok := os.LookupEnv("KITE_API_URL"); ok && strings.TrimSpace(value) != "" {
		c.Engine.APIURL = value
	}
	c.Engine.APIURL = strings.TrimRight(strings.TrimSpace(c.Engine.APIURL), "/")
	if c.Engine.APIURL == "" {
		c.Engine.APIURL = defaultEngineAPIURL
	}
	c.Engine.DownloadURL = strings.TrimSpace(c.Engine.DownloadURL)

	platforms := make([]string, 0, len(c.Engine.SupportedPlatforms))
	for _, platform := range c.Engine.SupportedPlatforms {
		platform = strings.ToLower(strings.TrimSpace(platform))
		if platform != "" {
			platforms = append(platforms, platform)
		}
	}
	c.Engine.SupportedPlatforms = platforms
	return nil
}

func (c *Config) normalizeAccount() {
	c.Account.Email = strings.TrimSpace(c.Account.Email)
	if c.Account.Email == "" {
		if value, ok := os.LookupEnv("KITE_EMAIL"); ok {
			c.Account.Email = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("KITEREADY_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTelemetry() error {
	c.Telemetry.JournalPath = strings.TrimSpace(c.Telemetry.JournalPath)
	if c.Telemetry.JournalPath == "" {
		c.Telemetry.JournalPath = filepath.Join(c.Paths.StateDir, defaultJournalFile)
		return nil
	}
	var err error
	if c.Telemetry.JournalPath, err = expandPath(c.Telemetry.JournalPath); err != nil {
		return fmt.Errorf("telemetry.journal_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
