package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateReadiness(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateTelemetry(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	if strings.ContainsAny(c.Engine.Binary, `/\`) && !strings.HasPrefix(c.Engine.Binary, "/") {
		return fmt.Errorf("engine.binary must be a bare name or an absolute path; got %q", c.Engine.Binary)
	}
	if err := validateHTTPURL("engine.api_url", c.Engine.APIURL); err != nil {
		return err
	}
	if c.Engine.DownloadURL != "" && !strings.HasPrefix(c.Engine.DownloadURL, "file://") {
		if err := validateHTTPURL("engine.download_url", c.Engine.DownloadURL); err != nil {
			return err
		}
	}
	if len(c.Engine.SupportedPlatforms) == 0 {
		return errors.New("engine.supported_platforms must list at least one platform")
	}
	return ensurePositiveMap(map[string]int{
		"engine.request_timeout":  c.Engine.RequestTimeout,
		"engine.download_timeout": c.Engine.DownloadTimeout,
	})
}

func (c *Config) validateReadiness() error {
	if c.Readiness.SettleDelaySeconds < 0 {
		return errors.New("readiness.settle_delay_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if strings.ContainsAny(c.Notifications.NtfyTopic, " \t") {
		return fmt.Errorf("notifications.ntfy_topic must be a URL without whitespace; got %q", c.Notifications.NtfyTopic)
	}
	return ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateTelemetry() error {
	if !c.Telemetry.Enabled {
		return nil
	}
	return ensurePositiveMap(map[string]int{
		"telemetry.buffer_size": c.Telemetry.BufferSize,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https; got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host; got %q", key, value)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
