package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateService(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDiagnostics(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateService() error {
	raw := strings.TrimSpace(c.Service.BaseURL)
	if raw == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("service.base_url is required. Set %s env var or edit %s (create with 'videoqa config init')", baseURLEnv, defaultPath)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("service.base_url must use http or https, got %q", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("service.base_url must include a host, got %q", raw)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	if err := ensureNonNegativeMap(map[string]int{
		"logging.max_size_mb":  c.Logging.MaxSizeMB,
		"logging.max_backups":  c.Logging.MaxBackups,
		"logging.max_age_days": c.Logging.MaxAgeDays,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDiagnostics() error {
	if !c.Diagnostics.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Paths.DiagnosticsDB) == "" {
		return errors.New("paths.diagnostics_db must be set when diagnostics.enabled is true")
	}
	if c.Diagnostics.RetentionDays < 0 {
		return errors.New("diagnostics.retention_days must be >= 0")
	}
	return nil
}

func ensureNonNegativeMap(values map[string]int) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return nil
}
