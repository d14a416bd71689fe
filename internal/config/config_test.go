package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadReadsSections(t *testing.T) {
	t.Setenv("LASTFM_API_KEY", "")
	path := writeConfig(t, `
server:
  port: "9090"
lastfm:
  api_key: " file-key "
fetch:
  retries: 0
  backoff: 250ms
  concurrency: 8
quiz:
  questions: 5
  shuffle_choices: true
  periods: [7day, overall]
redis:
  addr: localhost:6379
  ttl: 2m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.APIKey() != "file-key" {
		t.Fatalf("unexpected server/lastfm section %+v", cfg)
	}
	if cfg.Retries() != 0 {
		t.Fatalf("expected explicit zero retries, got %d", cfg.Retries())
	}
	if got := Duration(cfg.Fetch.Backoff, DefaultBackoff); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms backoff, got %s", got)
	}
	if cfg.Concurrency() != 8 || cfg.Questions() != 5 || !cfg.Quiz.ShuffleChoices {
		t.Fatalf("unexpected fetch/quiz section %+v", cfg)
	}
	if len(cfg.Quiz.Periods) != 2 || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected quiz/redis section %+v", cfg)
	}
	if cfg.BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url, got %s", cfg.BaseURL())
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("LASTFM_API_KEY", "env-key")
	path := writeConfig(t, "lastfm:\n  api_key: file-key\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey() != "env-key" {
		t.Fatalf("expected env key, got %q", cfg.APIKey())
	}
}

func TestLoadOrDefaultToleratesMissingFile(t *testing.T) {
	t.Setenv("LASTFM_API_KEY", "env-key")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey() != "env-key" || cfg.Retries() != DefaultRetries || cfg.Concurrency() != DefaultConcurrency || cfg.Questions() != DefaultQuestions {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected Load to fail on a missing file")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated\n")
	if _, err := LoadOrDefault(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDurationFallsBack(t *testing.T) {
	if got := Duration("", time.Second); got != time.Second {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := Duration("soon", time.Second); got != time.Second {
		t.Fatalf("expected fallback for garbage, got %s", got)
	}
	if got := Duration("90s", time.Second); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}
