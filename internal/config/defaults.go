package config

const (
	defaultConfigPath      = "~/.config/videoqa/config.toml"
	defaultBaseURL         = "http://localhost:8000/api/v1"
	defaultLogDir          = "~/.local/share/videoqa/logs"
	defaultDiagnosticsDB   = "~/.local/share/videoqa/diagnostics.db"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogMaxSizeMB    = 10
	defaultLogMaxBackups   = 3
	defaultLogMaxAgeDays   = 28
	defaultDiagnosticsDays = 30
	baseURLEnv             = "VIDEOQA_API_URL"
	diagnosticsDisabledEnv = "VIDEOQA_DIAGNOSTICS_DISABLED"
)

// Default returns a Config populated with repository defaults. The service
// base URL is left empty so the environment fallback can apply during
// normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:        defaultLogDir,
			DiagnosticsDB: defaultDiagnosticsDB,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
			Compress:   true,
		},
		Diagnostics: Diagnostics{
			Enabled:       true,
			RetentionDays: defaultDiagnosticsDays,
		},
	}
}
