package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"videoqa/internal/config"
	"videoqa/internal/testsupport"
	"videoqa/internal/video"
)

type cliTestEnv struct {
	cfg        *config.Config
	fake       *testsupport.FakeService
	configPath string
}

func setupCLITestEnv(t *testing.T, seed ...video.Video) *cliTestEnv {
	return setupCLITestEnvWith(t, nil, seed...)
}

func setupCLITestEnvWith(t *testing.T, opts []testsupport.ConfigOption, seed ...video.Video) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("VIDEOQA_API_URL", "")
	t.Setenv("VIDEOQA_DIAGNOSTICS_DISABLED", "")

	fake := testsupport.NewFakeService(t, seed...)
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithServiceURL(fake.URL())}, opts...)...)

	configPath := filepath.Join(homeDir, ".config", "videoqa", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, fake: fake, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	flags := []string{}
	if env != nil && env.configPath != "" {
		flags = append(flags, "--config", env.configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func completedVideo(id, title, transcription string) video.Video {
	return video.Video{
		ID:            id,
		Title:         title,
		URL:           "https://example.com/" + id,
		Description:   title + " description",
		CreatedAt:     "2024-05-01T12:00:00",
		Status:        video.StatusCompleted,
		Transcription: transcription,
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
