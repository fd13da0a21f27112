package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// URLSource names where an empty base_url is resolved from.
type URLSource string

const (
	URLFromEnvironment URLSource = "environment"
	URLFromDotEnv      URLSource = ".env"
	URLFromDefault     URLSource = "default"
)

// ServiceURLSource reports the URL an empty base_url would resolve to and
// where it comes from. A .env file in the working directory is read but not
// applied to the environment.
func ServiceURLSource() (URLSource, string) {
	if value := strings.TrimSpace(os.Getenv(baseURLEnv)); value != "" {
		return URLFromEnvironment, value
	}
	if values, err := godotenv.Read(".env"); err == nil {
		if value := strings.TrimSpace(values[baseURLEnv]); value != "" {
			return URLFromDotEnv, value
		}
	}
	return URLFromDefault, defaultBaseURL
}

func (c *Config) normalize() error {
	c.normalizeService()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeDiagnostics()
	return nil
}

func (c *Config) normalizeService() {
	c.Service.BaseURL = strings.TrimSpace(c.Service.BaseURL)
	if c.Service.BaseURL == "" {
		if value, ok := os.LookupEnv(baseURLEnv); ok {
			c.Service.BaseURL = strings.TrimSpace(value)
		}
	}
	if c.Service.BaseURL == "" {
		c.Service.BaseURL = defaultBaseURL
	}
	c.Service.BaseURL = strings.TrimRight(c.Service.BaseURL, "/")
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DiagnosticsDB) == "" {
		c.Paths.DiagnosticsDB = defaultDiagnosticsDB
	}
	if c.Paths.DiagnosticsDB, err = expandPath(strings.TrimSpace(c.Paths.DiagnosticsDB)); err != nil {
		return fmt.Errorf("paths.diagnostics_db: %w", err)
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
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
}

func (c *Config) normalizeDiagnostics() {
	if value, ok := os.LookupEnv(diagnosticsDisabledEnv); ok {
		if disabled, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil && disabled {
			c.Diagnostics.Enabled = false
		}
	}
	if c.Diagnostics.RetentionDays == 0 {
		c.Diagnostics.RetentionDays = defaultDiagnosticsDays
	}
}
