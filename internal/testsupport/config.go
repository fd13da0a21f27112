package testsupport

import (
	"path/filepath"
	"testing"

	"videoqa/internal/config"
	"videoqa/internal/diagnostics"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Service.BaseURL = "http://127.0.0.1:0/api/v1"
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DiagnosticsDB = filepath.Join(base, "state", "diagnostics.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithServiceURL points the test config at a (usually fake) video service.
func WithServiceURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Service.BaseURL = url
	}
}

// WithDiagnosticsDisabled turns the failure journal off.
func WithDiagnosticsDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Diagnostics.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

// MustOpenJournal opens the diagnostics journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *diagnostics.Journal {
	t.Helper()

	journal, err := diagnostics.Open(cfg, nil)
	if err != nil {
		t.Fatalf("diagnostics.Open: %v", err)
	}
	t.Cleanup(func() {
		journal.Close()
	})
	return journal
}
