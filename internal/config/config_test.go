package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"videoqa/internal/config"
)

func TestLoadDefaultConfigFallsBackToLocalService(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("VIDEOQA_API_URL", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Service.BaseURL != "http://localhost:8000/api/v1" {
		t.Fatalf("unexpected base url: %q", cfg.Service.BaseURL)
	}
	wantLogDir := filepath.Join(tempHome, ".local", "share", "videoqa", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.LogPath() != filepath.Join(wantLogDir, "videoqa.log") {
		t.Fatalf("unexpected log path: %q", cfg.LogPath())
	}
	if !cfg.Diagnostics.Enabled {
		t.Fatal("expected diagnostics enabled by default")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadUsesEnvBaseURLWhenFileIsSilent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIDEOQA_API_URL", "https://videos.example.com/api/v1/")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Service.BaseURL != "https://videos.example.com/api/v1" {
		t.Fatalf("expected env base url without trailing slash, got %q", cfg.Service.BaseURL)
	}
}

func TestLoadReadsDotEnvFromWorkingDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIDEOQA_API_URL", "")
	os.Unsetenv("VIDEOQA_API_URL")
	workDir := t.TempDir()
	t.Chdir(workDir)
	if err := os.WriteFile(filepath.Join(workDir, ".env"), []byte("VIDEOQA_API_URL=http://dotenv.local:9000/api/v1\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Service.BaseURL != "http://dotenv.local:9000/api/v1" {
		t.Fatalf("expected base url from .env, got %q", cfg.Service.BaseURL)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("VIDEOQA_API_URL", "http://ignored.example.com")
	t.Chdir(t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "videoqa.toml")

	type payload struct {
		Service struct {
			BaseURL string `toml:"base_url"`
		} `toml:"service"`
		Paths struct {
			LogDir string `toml:"log_dir"`
		} `toml:"paths"`
		Logging struct {
			Format     string `toml:"format"`
			MaxBackups int    `toml:"max_backups"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Service.BaseURL = "https://api.example.com/v2"
	custom.Paths.LogDir = filepath.Join(tempDir, "logs")
	custom.Logging.Format = "JSON"
	custom.Logging.MaxBackups = 7
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Service.BaseURL != "https://api.example.com/v2" {
		t.Fatalf("expected file base url to win over env, got %q", cfg.Service.BaseURL)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized json format, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.MaxBackups != 7 {
		t.Fatalf("expected max backups 7, got %d", cfg.Logging.MaxBackups)
	}
}

func TestDiagnosticsCanBeDisabledFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIDEOQA_DIAGNOSTICS_DISABLED", "true")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Diagnostics.Enabled {
		t.Fatal("expected diagnostics disabled by env")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "VIDEOQA_API_URL") {
		t.Fatalf("sample config missing env hint: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DiagnosticsDB, "videoqa") {
		t.Fatalf("expected diagnostics path to contain videoqa, got %q", cfg.Paths.DiagnosticsDB)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.Service.BaseURL = "http://localhost:8000/api/v1"
		return cfg
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg = valid()
	cfg.Service.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing base url")
	}

	cfg = valid()
	cfg.Service.BaseURL = "ftp://example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http scheme")
	}

	cfg = valid()
	cfg.Service.BaseURL = "http://"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing host")
	}

	cfg = valid()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown level")
	}

	cfg = valid()
	cfg.Logging.MaxAgeDays = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative max age")
	}

	cfg = valid()
	cfg.Diagnostics.RetentionDays = -5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative retention")
	}

	cfg = valid()
	cfg.Diagnostics.Enabled = false
	cfg.Diagnostics.RetentionDays = -5
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled diagnostics should skip retention check, got %v", err)
	}
}

func TestEnsureDirectoriesCreatesLogAndJournalParents(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DiagnosticsDB = filepath.Join(base, "state", "diagnostics.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Paths.DiagnosticsDB)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func TestServiceURLSourcePrefersEnvironmentOverDotEnv(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)
	t.Setenv("VIDEOQA_API_URL", "")
	os.Unsetenv("VIDEOQA_API_URL")

	if source, value := config.ServiceURLSource(); source != config.URLFromDefault || value != "http://localhost:8000/api/v1" {
		t.Fatalf("expected default, got %s %q", source, value)
	}

	if err := os.WriteFile(filepath.Join(workDir, ".env"), []byte("VIDEOQA_API_URL=http://dotenv.local/api/v1\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if source, value := config.ServiceURLSource(); source != config.URLFromDotEnv || value != "http://dotenv.local/api/v1" {
		t.Fatalf("expected .env, got %s %q", source, value)
	}

	t.Setenv("VIDEOQA_API_URL", "http://env.local/api/v1")
	if source, value := config.ServiceURLSource(); source != config.URLFromEnvironment || value != "http://env.local/api/v1" {
		t.Fatalf("expected environment, got %s %q", source, value)
	}
}
